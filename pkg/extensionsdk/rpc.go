// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Protogen Contributors

package extensionsdk

import (
	"errors"
	"log/slog"
	"net/rpc"

	hashiplug "github.com/hashicorp/go-plugin"

	"github.com/mrf7777/protogen-software-sub000/pkg/attributes"
	"github.com/mrf7777/protogen-software-sub000/pkg/extension"
	"github.com/mrf7777/protogen-software-sub000/pkg/sensor"
)

// PluginName is the key the extension is dispensed under.
const PluginName = "extension"

// HandshakeConfig is the go-plugin handshake configuration.
// Both host and extensions must use the same values.
var HandshakeConfig = hashiplug.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "PROTOGEN_EXTENSION",
	MagicCookieValue: "protogen-v1",
}

var errNoStore = errors.New("extension has no attribute store")

// PluginMap returns the go-plugin plugin set serving impl. The host side
// passes a nil impl.
func PluginMap(impl extension.Extension, destroy extension.DestroyFunc) map[string]hashiplug.Plugin {
	return map[string]hashiplug.Plugin{
		PluginName: &ExtensionPlugin{Impl: impl, Destroy: destroy},
	}
}

// ExtensionPlugin implements go-plugin's net/rpc Plugin interface.
type ExtensionPlugin struct {
	Impl    extension.Extension
	Destroy extension.DestroyFunc
}

// Server returns the RPC server (called by the extension process).
func (p *ExtensionPlugin) Server(*hashiplug.MuxBroker) (interface{}, error) {
	if p.Impl == nil {
		return nil, errors.New("extensionsdk: extension is nil")
	}
	return &RPCServer{impl: p.Impl, destroy: p.Destroy}, nil
}

// Client returns the host-side proxy (called by the host process).
func (p *ExtensionPlugin) Client(_ *hashiplug.MuxBroker, c *rpc.Client) (interface{}, error) {
	return NewRPCClient(c)
}

// Capabilities describes what a remote extension implements.
type Capabilities struct {
	Store  bool
	Sensor bool
}

// AttributeValue is the reply to GetAttribute.
type AttributeValue struct {
	Value string
	OK    bool
}

// AccessValue is the reply to AttributeAccess.
type AccessValue struct {
	Access attributes.Access
	OK     bool
}

// SetArgs are the arguments to SetAttribute.
type SetArgs struct {
	Key   string
	Value string
}

// RPCServer exposes an extension over net/rpc.
type RPCServer struct {
	impl    extension.Extension
	destroy extension.DestroyFunc
}

func (s *RPCServer) store() (attributes.Store, error) {
	st := s.impl.AttributeStore()
	if st == nil {
		return nil, errNoStore
	}
	return st, nil
}

// Capabilities reports the interfaces the extension implements.
func (s *RPCServer) Capabilities(_ any, resp *Capabilities) error {
	_, isSensor := s.impl.(sensor.Sensor)
	*resp = Capabilities{Store: s.impl.AttributeStore() != nil, Sensor: isSensor}
	return nil
}

// Initialize calls the extension's Initialize.
func (s *RPCServer) Initialize(_ any, resp *extension.Initialization) error {
	*resp = s.impl.Initialize()
	return nil
}

// GetAttribute reads an attribute.
func (s *RPCServer) GetAttribute(key string, resp *AttributeValue) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	resp.Value, resp.OK = st.GetAttribute(key)
	return nil
}

// SetAttribute writes an attribute.
func (s *RPCServer) SetAttribute(args SetArgs, resp *attributes.SetResult) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	*resp = st.SetAttribute(args.Key, args.Value)
	return nil
}

// ListAttributes lists attribute keys.
func (s *RPCServer) ListAttributes(_ any, resp *[]string) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	*resp = st.ListAttributes()
	return nil
}

// AttributeAccess returns the access level of a key.
func (s *RPCServer) AttributeAccess(key string, resp *AccessValue) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	resp.Access, resp.OK = st.AttributeAccess(key)
	return nil
}

// HasAttribute reports whether a key exists.
func (s *RPCServer) HasAttribute(key string, resp *bool) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	*resp = st.HasAttribute(key)
	return nil
}

// RemoveAttribute removes a key.
func (s *RPCServer) RemoveAttribute(key string, resp *attributes.RemoveResult) error {
	st, err := s.store()
	if err != nil {
		return err
	}
	*resp = st.RemoveAttribute(key)
	return nil
}

// Channels lists sensor channels.
func (s *RPCServer) Channels(_ any, resp *[]sensor.ChannelInfo) error {
	sn, ok := s.impl.(sensor.Sensor)
	if !ok {
		return errors.New("extension is not a sensor")
	}
	*resp = sn.Channels()
	return nil
}

// Read reads a sensor channel.
func (s *RPCServer) Read(channel string, resp *sensor.ReadResult) error {
	sn, ok := s.impl.(sensor.Sensor)
	if !ok {
		return errors.New("extension is not a sensor")
	}
	*resp = sn.Read(channel)
	return nil
}

// Destroy runs the extension's destroy function, if any.
func (s *RPCServer) Destroy(_ any, resp *bool) error {
	if s.destroy != nil {
		s.destroy(s.impl)
	}
	*resp = true
	return nil
}

// RPCClient is the host-side proxy of a remote extension. Transport
// failures are logged and reported as the zero outcome of each call.
type RPCClient struct {
	client *rpc.Client
	caps   Capabilities
	store  *remoteStore
}

var _ extension.Extension = (*RPCClient)(nil)

// RPCSensor is the proxy of a remote sensor.
type RPCSensor struct {
	*RPCClient
}

var _ sensor.Sensor = (*RPCSensor)(nil)

// NewRPCClient queries the remote capabilities and returns an
// *RPCSensor or *RPCClient accordingly.
func NewRPCClient(c *rpc.Client) (extension.Extension, error) {
	var caps Capabilities
	if err := c.Call("Plugin.Capabilities", new(any), &caps); err != nil {
		return nil, err
	}
	client := &RPCClient{client: c, caps: caps}
	if caps.Store {
		client.store = &remoteStore{client: c}
	}
	if caps.Sensor {
		return &RPCSensor{RPCClient: client}, nil
	}
	return client, nil
}

// Initialize calls Initialize in the extension process.
func (c *RPCClient) Initialize() extension.Initialization {
	var resp extension.Initialization
	if err := c.client.Call("Plugin.Initialize", new(any), &resp); err != nil {
		slog.Warn("remote initialize failed", "error", err)
		return extension.InitFailure
	}
	return resp
}

// AttributeStore returns the remote store, or nil if the extension has
// none.
func (c *RPCClient) AttributeStore() attributes.Store {
	if c.store == nil {
		return nil
	}
	return c.store
}

// Destroy runs the destroy function in the extension process.
func (c *RPCClient) Destroy() error {
	var ok bool
	return c.client.Call("Plugin.Destroy", new(any), &ok)
}

// Channels lists the remote channels.
func (s *RPCSensor) Channels() []sensor.ChannelInfo {
	var resp []sensor.ChannelInfo
	if err := s.client.Call("Plugin.Channels", new(any), &resp); err != nil {
		slog.Warn("remote channels failed", "error", err)
		return nil
	}
	return resp
}

// Read reads a remote channel.
func (s *RPCSensor) Read(channel string) sensor.ReadResult {
	var resp sensor.ReadResult
	if err := s.client.Call("Plugin.Read", channel, &resp); err != nil {
		slog.Warn("remote read failed", "channel", channel, "error", err)
		return sensor.Failed()
	}
	return resp
}

type remoteStore struct {
	client *rpc.Client
}

var _ attributes.Store = (*remoteStore)(nil)

func (r *remoteStore) GetAttribute(key string) (string, bool) {
	var resp AttributeValue
	if err := r.client.Call("Plugin.GetAttribute", key, &resp); err != nil {
		return "", false
	}
	return resp.Value, resp.OK
}

func (r *remoteStore) ListAttributes() []string {
	var resp []string
	if err := r.client.Call("Plugin.ListAttributes", new(any), &resp); err != nil {
		return nil
	}
	return resp
}

func (r *remoteStore) AttributeAccess(key string) (attributes.Access, bool) {
	var resp AccessValue
	if err := r.client.Call("Plugin.AttributeAccess", key, &resp); err != nil {
		return 0, false
	}
	return resp.Access, resp.OK
}

func (r *remoteStore) HasAttribute(key string) bool {
	var resp bool
	if err := r.client.Call("Plugin.HasAttribute", key, &resp); err != nil {
		return false
	}
	return resp
}

func (r *remoteStore) SetAttribute(key, value string) attributes.SetResult {
	var resp attributes.SetResult
	if err := r.client.Call("Plugin.SetAttribute", SetArgs{Key: key, Value: value}, &resp); err != nil {
		return attributes.SetRejectedByPolicy
	}
	return resp
}

func (r *remoteStore) RemoveAttribute(key string) attributes.RemoveResult {
	var resp attributes.RemoveResult
	if err := r.client.Call("Plugin.RemoveAttribute", key, &resp); err != nil {
		return attributes.RemoveRejectedByPolicy
	}
	return resp
}
