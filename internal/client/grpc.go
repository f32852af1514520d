package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	flagsv1 "github.com/alfredjeanlab/flags/api/flags/v1"
	"github.com/alfredjeanlab/flags/internal/flags"
)

// GRPCClient implements FlagsClient over gRPC.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client flagsv1.FlagServiceClient
}

var _ FlagsClient = (*GRPCClient)(nil)

// NewGRPCClient connects to addr. When token is non-empty it is sent as a
// Bearer token on every call. Extra dial options are appended.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	dialOpts := []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	if token != "" {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(bearerInterceptor(token)))
	}
	conn, err := grpc.NewClient(addr, append(dialOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: flagsv1.NewFlagServiceClient(conn),
	}, nil
}

func bearerInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) IsEnabled(ctx context.Context, name string) (bool, error) {
	resp, err := c.client.IsEnabled(ctx, &flagsv1.IsEnabledRequest{Name: name})
	if err != nil {
		return false, fromStatus(err)
	}
	return resp.Enabled, nil
}

func (c *GRPCClient) EnableFlag(ctx context.Context, name, description string) (bool, error) {
	resp, err := c.client.EnableFlag(ctx, &flagsv1.EnableFlagRequest{Name: name, Description: description})
	if err != nil {
		return false, fromStatus(err)
	}
	return resp.Success, nil
}

func (c *GRPCClient) DisableFlag(ctx context.Context, name, reason string) (bool, error) {
	resp, err := c.client.DisableFlag(ctx, &flagsv1.DisableFlagRequest{Name: name, Reason: reason})
	if err != nil {
		return false, fromStatus(err)
	}
	return resp.Success, nil
}

func (c *GRPCClient) ListFlags(ctx context.Context) (map[string]bool, error) {
	resp, err := c.client.ListFlags(ctx, &flagsv1.ListFlagsRequest{})
	if err != nil {
		return nil, fromStatus(err)
	}
	if resp.Flags == nil {
		resp.Flags = map[string]bool{}
	}
	return resp.Flags, nil
}

func (c *GRPCClient) ListDetails(ctx context.Context) ([]*flags.Details, error) {
	resp, err := c.client.ListFlags(ctx, &flagsv1.ListFlagsRequest{Details: true})
	if err != nil {
		return nil, fromStatus(err)
	}
	return wireToDetailsList(resp.Records), nil
}

func (c *GRPCClient) GetFlagDetails(ctx context.Context, name string) (*flags.Details, error) {
	resp, err := c.client.GetFlagDetails(ctx, &flagsv1.GetFlagDetailsRequest{Name: name})
	if err != nil {
		return nil, fromStatus(err)
	}
	return wireToDetails(resp.Flag), nil
}

func (c *GRPCClient) DeleteFlag(ctx context.Context, name string) (bool, error) {
	resp, err := c.client.DeleteFlag(ctx, &flagsv1.DeleteFlagRequest{Name: name})
	if err != nil {
		return false, fromStatus(err)
	}
	return resp.Deleted, nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.client.Health(ctx, &flagsv1.HealthRequest{})
	if err != nil {
		return "", fromStatus(err)
	}
	return resp.Status, nil
}
