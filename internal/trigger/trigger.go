// Package trigger decides which backend methods are reachable through the
// generated JSON-RPC client.
package trigger

import "github.com/QTest-hq/sdkgen/pkg/ir"

// Effective returns the trigger of a method: its own override when one is
// configured, otherwise the class default.
func Effective(cfg *ir.ClassConfig, method string) ir.TriggerKind {
	if mc := cfg.Method(method); mc != nil && mc.Type != "" {
		return mc.Type
	}
	return cfg.DefaultType()
}

// Exposed reports whether the method gets an SDK stub. Classes whose own
// trigger is not jsonrpc are served through other channels, so none of their
// methods are exposed whatever the per-method overrides say.
func Exposed(cfg *ir.ClassConfig, method string) bool {
	if cfg.DefaultType() != ir.TriggerJSONRPC {
		return false
	}
	return Effective(cfg, method) == ir.TriggerJSONRPC
}

// ExposedMethods filters the class methods down to the exposed ones,
// keeping declaration order.
func ExposedMethods(class *ir.Class, cfg *ir.ClassConfig) []*ir.Method {
	if class == nil {
		return nil
	}
	methods := make([]*ir.Method, 0, len(class.Methods))
	for _, m := range class.Methods {
		if Exposed(cfg, m.Name) {
			methods = append(methods, m)
		}
	}
	return methods
}
