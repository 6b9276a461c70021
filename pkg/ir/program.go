package ir

// TriggerKind says how a backend method is invoked.
type TriggerKind string

const (
	TriggerJSONRPC TriggerKind = "jsonrpc"
	TriggerHTTP    TriggerKind = "http"
	TriggerCron    TriggerKind = "cron"
)

// Valid reports whether k is a known trigger kind.
func (k TriggerKind) Valid() bool {
	switch k {
	case TriggerJSONRPC, TriggerHTTP, TriggerCron:
		return true
	}
	return false
}

// Program is the IR of one source file.
type Program struct {
	Body             []Node
	OriginalLanguage string
	SourceType       string
}

// Class returns the first class declared in the program, or nil.
func (p *Program) Class() *Class {
	if p == nil {
		return nil
	}
	for _, n := range p.Body {
		if c, ok := n.(*Class); ok {
			return c
		}
	}
	return nil
}

// ClassConfig is the deployment-facing configuration of a class.
type ClassConfig struct {
	Name    string
	Path    string
	Type    TriggerKind // class default, jsonrpc when empty
	Methods []MethodConfig
}

// MethodConfig overrides the trigger of a single method.
type MethodConfig struct {
	Name       string
	Type       TriggerKind // empty inherits the class default
	Auth       bool
	CronString string
}

// DefaultType returns the class default trigger.
func (c *ClassConfig) DefaultType() TriggerKind {
	if c == nil || c.Type == "" {
		return TriggerJSONRPC
	}
	return c.Type
}

// Method returns the configuration entry for the named method, or nil.
func (c *ClassConfig) Method(name string) *MethodConfig {
	if c == nil {
		return nil
	}
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i]
		}
	}
	return nil
}
