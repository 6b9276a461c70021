package remote

import _ "embed"

// Source is the text of remote.go. Generated Go SDKs ship it as
// remote/remote.go.
//
//go:embed remote.go
var Source string
