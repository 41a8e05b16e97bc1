// Package relation provides a client for Ory Keto, an open-source authorization server.
// It covers the relation tuples that grant back-office operators access to consoles.
package relation

import (
	"context"
	"errors"
	"fmt"

	pb "github.com/ory/keto/proto/ory/keto/relation_tuples/v1alpha2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	ErrWriteConnectNotInitialed = errors.New("write connect not initialed")
	ErrReadConnectNotInitialed  = errors.New("read connect not initialed")
	ErrWriteFailed              = errors.New("write failed")
	ErrReadFailed               = errors.New("read failed")
)

// Client holds the gRPC connections to the Keto APIs.
// It is safe for concurrent use. Service clients are nil when their address is not configured.
type Client struct {
	writeConn *grpc.ClientConn
	readConn  *grpc.ClientConn
	writeSC   pb.WriteServiceClient
	readSC    pb.ReadServiceClient
	checkSC   pb.CheckServiceClient
}

// Config holds the configuration for the Keto client.
type Config struct {
	WriteAddr string
	ReadAddr  string
}

// NewClient creates a new Keto client and its associated cleanup function.
func NewClient(cfg Config) (*Client, func(), error) {
	client := &Client{}

	if cfg.WriteAddr != "" {
		conn, err := grpc.NewClient(cfg.WriteAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to keto write api: %w", err)
		}
		client.writeConn = conn
		client.writeSC = pb.NewWriteServiceClient(conn)
	}

	if cfg.ReadAddr != "" {
		conn, err := grpc.NewClient(cfg.ReadAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			// Clean up write connection if read connection fails
			if client.writeConn != nil {
				client.writeConn.Close()
			}
			return nil, nil, fmt.Errorf("failed to connect to keto read api: %w", err)
		}
		client.readConn = conn
		client.readSC = pb.NewReadServiceClient(conn)
		client.checkSC = pb.NewCheckServiceClient(conn)
	}

	cleanup := func() {
		if client.writeConn != nil {
			client.writeConn.Close()
		}
		if client.readConn != nil {
			client.readConn.Close()
		}
	}
	return client, cleanup, nil
}

// CanCheck reports whether permission checks can be answered.
func (c *Client) CanCheck() bool {
	return c != nil && c.checkSC != nil
}

// WriteTuple performs a transaction to create or delete relation tuples.
func (c *Client) WriteTuple(ctx context.Context, tuples tupleBuilder) error {
	if c.writeSC == nil {
		return ErrWriteConnectNotInitialed
	}

	_, err := c.writeSC.TransactRelationTuples(ctx, &pb.TransactRelationTuplesRequest{
		RelationTupleDeltas: tuples,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
