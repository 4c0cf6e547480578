package engine

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cartridge/evaluator/internal/env"
)

// Client is an env.Environment backed by a remote engine service.
type Client struct {
	conn   *grpc.ClientConn
	envID  string
	height int
	width  int
	space  *env.Discrete
}

// Dial connects to the engine at addr and fetches the capabilities of envID.
// Random actions are sampled locally from rng.
func Dial(ctx context.Context, addr, envID string, rng *rand.Rand, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to engine at %s: %w", addr, err)
	}

	c := &Client{conn: conn, envID: envID}
	caps, err := c.call(ctx, methodGetCapabilities, map[string]any{"env_id": envID})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get capabilities for %s: %w", envID, err)
	}

	actions, err := intField(caps, "actions")
	if err == nil {
		c.height, err = intField(caps, "height")
	}
	if err == nil {
		c.width, err = intField(caps, "width")
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("invalid capabilities for %s: %w", envID, err)
	}

	c.space, err = env.NewDiscrete(actions, rng)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// Dims returns the frame dimensions reported by the engine.
func (c *Client) Dims() (int, int) {
	return c.height, c.width
}

// Reset implements env.Environment.
func (c *Client) Reset(ctx context.Context) (*mat.Dense, error) {
	resp, err := c.call(ctx, methodReset, map[string]any{"env_id": c.envID})
	if err != nil {
		return nil, fmt.Errorf("failed to reset game: %w", err)
	}
	return decodeFrame(resp, c.height, c.width)
}

// Step implements env.Environment.
func (c *Client) Step(ctx context.Context, action int) (env.StepResult, error) {
	resp, err := c.call(ctx, methodStep, map[string]any{
		"env_id": c.envID,
		"action": float64(action),
	})
	if err != nil {
		return env.StepResult{}, fmt.Errorf("failed to step environment: %w", err)
	}
	obs, err := decodeFrame(resp, c.height, c.width)
	if err != nil {
		return env.StepResult{}, err
	}
	fields := resp.GetFields()
	return env.StepResult{
		Observation: obs,
		Reward:      fields["reward"].GetNumberValue(),
		Done:        fields["done"].GetBoolValue(),
	}, nil
}

// ActionSpace implements env.Environment.
func (c *Client) ActionSpace() env.ActionSpace {
	return c.space
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
