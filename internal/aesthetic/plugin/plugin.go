// Package plugin serves and consumes learned-aesthetic predictors over
// HashiCorp go-plugin net/rpc, so a model can live in a separate binary.
package plugin

import (
	"fmt"
	"io"
	"net/rpc"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	goplugin "github.com/hashicorp/go-plugin"

	"github.com/jmylchreest/hueforge/internal/colour"
	"github.com/jmylchreest/hueforge/internal/reward"
)

// ProtocolVersion must match exactly between host and predictor binary.
const ProtocolVersion = 1

// Name is the key the predictor is dispensed under.
const Name = "predictor"

// Handshake is the go-plugin handshake shared by hueforge and predictor
// binaries.
var Handshake = goplugin.HandshakeConfig{
	ProtocolVersion:  ProtocolVersion,
	MagicCookieKey:   "HUEFORGE_PREDICTOR",
	MagicCookieValue: "hueforge_aesthetic_predictor",
}

// sizer is implemented by predictors that were trained for a fixed K.
type sizer interface {
	PaletteSize() int
}

// PredictorRPC implements goplugin.Plugin for predictors.
type PredictorRPC struct {
	goplugin.Plugin
	Impl reward.Predictor
}

// Server returns an RPC server for this plugin.
func (p *PredictorRPC) Server(*goplugin.MuxBroker) (interface{}, error) {
	return &RPCServer{Impl: p.Impl}, nil
}

// Client returns an RPC client for this plugin.
func (p *PredictorRPC) Client(_ *goplugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RPCClient{client: c}, nil
}

// RPCServer is the net/rpc receiver running inside the predictor binary.
type RPCServer struct {
	Impl reward.Predictor
}

// Predict scores a palette sent as Lab triples.
func (s *RPCServer) Predict(args [][3]float64, resp *float64) error {
	labs := make([]colour.Lab, len(args))
	for i, v := range args {
		labs[i] = colour.Lab{L: v[0], A: v[1], B: v[2]}
	}
	score, err := s.Impl.Predict(labs)
	if err != nil {
		return err
	}
	*resp = score
	return nil
}

// PaletteSize reports the K the predictor expects, or 0 when it accepts any.
func (s *RPCServer) PaletteSize(_ interface{}, resp *int) error {
	if sz, ok := s.Impl.(sizer); ok {
		*resp = sz.PaletteSize()
	}
	return nil
}

// RPCClient is the host side of the predictor connection. It satisfies
// reward.Predictor and is safe for concurrent use.
type RPCClient struct {
	client *rpc.Client
}

// Predict calls the remote Predict method.
func (c *RPCClient) Predict(labs []colour.Lab) (float64, error) {
	args := make([][3]float64, len(labs))
	for i, l := range labs {
		args[i] = l.Array()
	}
	var score float64
	if err := c.client.Call("Plugin.Predict", args, &score); err != nil {
		return 0, err
	}
	return score, nil
}

// PaletteSize calls the remote PaletteSize method.
func (c *RPCClient) PaletteSize() (int, error) {
	var k int
	err := c.client.Call("Plugin.PaletteSize", new(interface{}), &k)
	return k, err
}

// PluginMap is the plugin set used on both sides of the connection.
func PluginMap(impl reward.Predictor) map[string]goplugin.Plugin {
	return map[string]goplugin.Plugin{
		Name: &PredictorRPC{Impl: impl},
	}
}

// Serve blocks serving impl to a hueforge host. It is called from the
// predictor binary's main.
func Serve(impl reward.Predictor, logger hclog.Logger) {
	goplugin.Serve(&goplugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins:         PluginMap(impl),
		Logger:          logger,
	})
}

// Client owns a running predictor process.
type Client struct {
	client *goplugin.Client
	rpc    *RPCClient
	logger hclog.Logger
}

// NewLogger returns the logger handed to go-plugin: debug output to w when
// verbose, silent otherwise.
func NewLogger(verbose bool, w io.Writer) hclog.Logger {
	if verbose {
		return hclog.New(&hclog.LoggerOptions{
			Name:   "predictor",
			Output: w,
			Level:  hclog.Debug,
		})
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "predictor",
		Output: io.Discard,
		Level:  hclog.Off,
	})
}

// Launch starts the predictor binary at path and connects to it.
func Launch(path string, args []string, logger hclog.Logger) (*Client, error) {
	if logger == nil {
		logger = NewLogger(false, io.Discard)
	}

	client := goplugin.NewClient(&goplugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          PluginMap(nil),
		Cmd:              exec.Command(path, args...), // #nosec G204 - User-configured predictor binary
		AllowedProtocols: []goplugin.Protocol{goplugin.ProtocolNetRPC},
		Logger:           logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to get RPC client: %w", err)
	}

	raw, err := rpcClient.Dispense(Name)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("failed to dispense predictor: %w", err)
	}

	pc, ok := raw.(*RPCClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("unexpected predictor client type %T", raw)
	}

	logger.Debug("predictor started", "path", path)
	return &Client{client: client, rpc: pc, logger: logger}, nil
}

// Predict scores a palette in the predictor process.
func (c *Client) Predict(labs []colour.Lab) (float64, error) {
	return c.rpc.Predict(labs)
}

// PaletteSize asks the predictor for its expected palette size.
func (c *Client) PaletteSize() (int, error) {
	return c.rpc.PaletteSize()
}

// Close stops the predictor process.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Kill()
		c.client = nil
	}
}
