package protocol

// MCPVersion is the protocol version advertised by initialize.
const MCPVersion = "2024-11-05"

// Gateway method names. The router accepts exactly these.
const (
	MethodInitialize    = "initialize"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPromptsList   = "prompts/list"
)

// ContentTypeText is the only content block type the gateway emits.
const ContentTypeText = "text"

// MimeTypeText is the MIME type of catalog resources.
const MimeTypeText = "text/plain"
