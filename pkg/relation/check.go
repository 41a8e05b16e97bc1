package relation

import (
	"context"
	"fmt"

	pb "github.com/ory/keto/proto/ory/keto/relation_tuples/v1alpha2"
)

func subjectSetTuple(namespace, object, relation, subjectNamespace, subjectObject string) *pb.RelationTuple {
	return &pb.RelationTuple{
		Namespace: namespace,
		Object:    object,
		Relation:  relation,
		Subject: &pb.Subject{
			Ref: &pb.Subject_Set{
				Set: &pb.SubjectSet{Namespace: subjectNamespace, Object: subjectObject},
			},
		},
	}
}

// Check asks whether subjectNamespace:subjectObject holds relation on namespace:object.
func (c *Client) Check(ctx context.Context, namespace, object, relation, subjectNamespace, subjectObject string) (bool, error) {
	if !c.CanCheck() {
		return false, ErrReadConnectNotInitialed
	}
	resp, err := c.checkSC.Check(ctx, &pb.CheckRequest{
		Tuple: subjectSetTuple(namespace, object, relation, subjectNamespace, subjectObject),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	return resp.GetAllowed(), nil
}
