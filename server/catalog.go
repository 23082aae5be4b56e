package server

import "github.com/felixgeelhaar/mcp-gateway/protocol"

const exampleResourceText = "This is the content of the resource"

// Catalog holds the static resource and prompt descriptors.
type Catalog struct {
	Resources []protocol.ResourceDescriptor
	Prompts   []protocol.PromptDescriptor
}

// DefaultCatalog returns the catalog served by the gateway.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Resources: []protocol.ResourceDescriptor{{
			URI:         "file:///example.txt",
			Name:        "Example Resource",
			Description: "An example resource",
			MimeType:    protocol.MimeTypeText,
		}},
		Prompts: []protocol.PromptDescriptor{{
			Name:        "example_prompt",
			Description: "An example prompt",
			Arguments:   []protocol.PromptArgument{},
		}},
	}
}

// Read returns the contents for uri. Every uri resolves to the same
// placeholder text; the catalog does not check that it is listed.
func (c *Catalog) Read(uri string) *protocol.ReadResourceResult {
	return &protocol.ReadResourceResult{
		Contents: []protocol.ResourceContents{{
			URI:      uri,
			MimeType: protocol.MimeTypeText,
			Text:     exampleResourceText,
		}},
	}
}
