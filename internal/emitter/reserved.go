package emitter

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// ECMAScript and TypeScript reserved words. "static" members of the client
// class and the runtime import are reserved as well.
var tsReserved = wordSet(
	"break", "case", "catch", "class", "const", "continue", "debugger",
	"default", "delete", "do", "else", "enum", "export", "extends", "false",
	"finally", "for", "function", "if", "implements", "import", "in",
	"instanceof", "interface", "let", "new", "null", "package", "private",
	"protected", "public", "return", "static", "super", "switch", "this",
	"throw", "true", "try", "type", "typeof", "var", "void", "while", "with",
	"yield", "await", "async", "arguments", "eval", "undefined",
	"Remote", "remote",
)

var pyReserved = wordSet(
	"False", "None", "True", "and", "as", "assert", "async", "await",
	"break", "class", "continue", "def", "del", "elif", "else", "except",
	"finally", "for", "from", "global", "if", "import", "in", "is", "lambda",
	"nonlocal", "not", "or", "pass", "raise", "return", "try", "while",
	"with", "yield", "match", "case",
	// names that would shadow builtins used in annotations
	"type", "list", "dict", "str", "int", "float", "bool", "object", "any",
	// method receivers
	"self", "cls", "Remote",
)

// Go keywords and predeclared types plus the local names generated methods
// use.
var goReserved = wordSet(
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type",
	"var",
	"any", "bool", "string", "int", "float64", "error", "nil", "true",
	"false", "append", "len", "make", "new",
	"ctx", "raw", "err", "c", "args", "zero", "remote", "context", "time",
	"fmt", "m", "out",
)

var ktReserved = wordSet(
	"as", "break", "class", "continue", "do", "else", "false", "for", "fun",
	"if", "in", "interface", "is", "null", "object", "package", "return",
	"super", "this", "throw", "true", "try", "typealias", "typeof", "val",
	"var", "when", "while",
	"remote", "raw", "m",
)

var dartReserved = wordSet(
	"abstract", "as", "assert", "async", "await", "base", "break", "case",
	"catch", "class", "const", "continue", "covariant", "default", "deferred",
	"do", "dynamic", "else", "enum", "export", "extends", "extension",
	"external", "factory", "false", "final", "finally", "for", "Function",
	"get", "hide", "if", "implements", "import", "in", "interface", "is",
	"late", "library", "mixin", "new", "null", "of", "on", "operator", "part",
	"required", "rethrow", "return", "sealed", "set", "show", "static",
	"super", "switch", "sync", "this", "throw", "true", "try", "type",
	"typedef", "var", "void", "when", "while", "with", "yield",
	"remote", "raw", "m",
)

// Members every Dart enum already has.
var dartEnumReserved = wordSet("values", "index", "name", "value", "fromJson", "toJson")
