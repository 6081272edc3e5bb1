package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves kernel status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Veld.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History retrieves recent journal deliveries.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.client.Call("Veld.History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Inject enqueues a deferred event.
func (c *Client) Inject(kind, message string, objectCount, codeCount int) (*InjectResponse, error) {
	var resp InjectResponse
	req := InjectRequest{Kind: kind, Message: message, ObjectCount: objectCount, CodeCount: codeCount}
	if err := c.client.Call("Veld.Inject", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GC triggers a stop-the-world collection.
func (c *Client) GC(cause string) (*GCResponse, error) {
	var resp GCResponse
	if err := c.client.Call("Veld.GC", GCRequest{Cause: cause}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Churn interns and retires synthetic table entries.
func (c *Client) Churn(count int) (*ChurnResponse, error) {
	var resp ChurnResponse
	if err := c.client.Call("Veld.Churn", ChurnRequest{Count: count}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NotifyTest pushes a test notification.
func (c *Client) NotifyTest() (*NotifyTestResponse, error) {
	var resp NotifyTestResponse
	if err := c.client.Call("Veld.NotifyTest", NotifyTestRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
