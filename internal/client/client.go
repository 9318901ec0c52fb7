// Package client implements the stateless TCP client side of the wire
// protocol (§4.6): one connection per call, no connection reuse.
package client

import (
	"net"

	"github.com/lskv/lskv/internal/kverrors"
	"github.com/lskv/lskv/internal/record"
)

// Client is a stateless holder of a server address. It is cheap to
// copy and safe for concurrent use since every call opens its own
// connection.
type Client struct {
	Addr string
}

// New builds a client targeting addr.
func New(addr string) *Client {
	return &Client{Addr: addr}
}

// call opens a connection, writes req, reads back exactly one
// response, and closes the connection (§4.6).
func (c *Client) call(req record.Request) (record.Response, error) {
	conn, err := net.Dial("tcp", c.Addr)
	if err != nil {
		return record.Response{}, kverrors.WrapIO("dial", err)
	}
	defer conn.Close()

	data, err := record.Encode(req)
	if err != nil {
		return record.Response{}, err
	}
	if _, err := conn.Write(data); err != nil {
		return record.Response{}, kverrors.WrapIO("write request", err)
	}

	reader := record.NewReader(conn)
	resp, err := reader.ReadResponse()
	if err != nil {
		return record.Response{}, err
	}
	return resp, nil
}

// Get returns (value, true) if key is bound to a non-empty value, ("",
// false) if it is unbound or bound to the empty string (the response
// encoding cannot tell these apart), or a ServerRespError when the
// server reports failure (§4.6).
func (c *Client) Get(key string) (string, bool, error) {
	resp, err := c.call(record.NewGetRequest(key))
	if err != nil {
		return "", false, err
	}
	if !resp.IsOk {
		return "", false, kverrors.NewServerResp(resp.Data)
	}
	if resp.Data == "" {
		return "", false, nil
	}
	return resp.Data, true, nil
}

// Set stores key/value, or returns a ServerRespError on failure.
func (c *Client) Set(key, value string) error {
	resp, err := c.call(record.NewSetRequest(key, value))
	if err != nil {
		return err
	}
	if !resp.IsOk {
		return kverrors.NewServerResp(resp.Data)
	}
	return nil
}

// Remove deletes key, or returns a ServerRespError on failure.
func (c *Client) Remove(key string) error {
	resp, err := c.call(record.NewRmRequest(key))
	if err != nil {
		return err
	}
	if !resp.IsOk {
		return kverrors.NewServerResp(resp.Data)
	}
	return nil
}

// IsKeyExist is Get with the value discarded (§4.6).
func (c *Client) IsKeyExist(key string) (bool, error) {
	_, ok, err := c.Get(key)
	return ok, err
}
