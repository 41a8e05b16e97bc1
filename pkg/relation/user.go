package relation

import (
	"context"
	"fmt"

	pb "github.com/ory/keto/proto/ory/keto/relation_tuples/v1alpha2"
)

// Role is a relation a user can hold on a console object.
type Role string

const (
	userNamespace = "User"

	// ConsoleNamespace holds one object per back-office console, e.g. Console:refunds.
	ConsoleNamespace = "Console"
	// RoleOperate allows running write operations in a console.
	RoleOperate = Role("operate")
)

// HasUserRole reports whether the user holds role on namespace:object.
func (c *Client) HasUserRole(ctx context.Context, userId, namespace, object string, r Role) (bool, error) {
	return c.Check(ctx, namespace, object, string(r), userNamespace, userId)
}

// AddUserResourceRole grants role to the user. Granting an existing role is a no-op.
func (c *Client) AddUserResourceRole(ctx context.Context, userId, namespace, object string, r Role) error {
	ok, err := c.HasUserRole(ctx, userId, namespace, object, r)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	tuples := NewTupleBuilder()
	tuples.AppendInsertTupleWithSubjectSet(namespace, object, string(r), userNamespace, userId)
	return c.WriteTuple(ctx, tuples)
}

// RemoveUserResourceRole revokes role from the user.
func (c *Client) RemoveUserResourceRole(ctx context.Context, userId, namespace, object string, r Role) error {
	tuples := NewTupleBuilder()
	tuples.AppendDeleteTupleWithSubjectSet(namespace, object, string(r), userNamespace, userId)
	return c.WriteTuple(ctx, tuples)
}

// ListUsersWithRole returns the ids of users directly holding role on namespace:object.
func (c *Client) ListUsersWithRole(ctx context.Context, namespace, object string, r Role) ([]string, error) {
	if c.readSC == nil {
		return nil, ErrReadConnectNotInitialed
	}

	var (
		users     []string
		pageToken string
	)
	for {
		resp, err := c.readSC.ListRelationTuples(ctx, &pb.ListRelationTuplesRequest{
			Query: &pb.ListRelationTuplesRequest_Query{
				Namespace: namespace,
				Object:    object,
				Relation:  string(r),
			},
			PageToken: pageToken,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		for _, rt := range resp.RelationTuples {
			if set := rt.GetSubject().GetSet(); set != nil && set.Namespace == userNamespace {
				users = append(users, set.Object)
			}
		}
		if resp.NextPageToken == "" {
			return users, nil
		}
		pageToken = resp.NextPageToken
	}
}
