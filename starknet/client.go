package starknet

import (
	"context"
	"fmt"
	"time"

	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
)

// Client makes RPC requests to a Starknet node. Client embeds a
// jsonrpc2.Client, and thus also the http.Client. Use http.Client's
// transport settings to configure TLS.
type Client struct {
	NodeURL string
	jrpc.Client
}

// NodeDefault is the endpoint of a local node.
const NodeDefault = "http://localhost:6060"

// NewClient returns a pointer to a Client initialized with the default
// localhost endpoint and a 15 second timeout.
func NewClient() *Client {
	c := &Client{NodeURL: NodeDefault}
	c.Timeout = 15 * time.Second
	return c
}

// Request makes a request to the node's JSON-RPC API.
func (c *Client) Request(ctx context.Context,
	method string, params, result interface{}) error {

	if c.DebugRequest {
		fmt.Println("starknet:", c.NodeURL)
	}
	return c.Client.Request(ctx, c.NodeURL, method, params, result)
}
