package relation

import pb "github.com/ory/keto/proto/ory/keto/relation_tuples/v1alpha2"

type tupleBuilder []*pb.RelationTupleDelta

func NewTupleBuilder() tupleBuilder {
	return tupleBuilder{}
}

func (t *tupleBuilder) AppendInsertTupleWithSubjectSet(namespace, object, relation, subjectNamespace, subjectObject string) {
	t.append(pb.RelationTupleDelta_ACTION_INSERT, namespace, object, relation, subjectNamespace, subjectObject)
}

func (t *tupleBuilder) AppendDeleteTupleWithSubjectSet(namespace, object, relation, subjectNamespace, subjectObject string) {
	t.append(pb.RelationTupleDelta_ACTION_DELETE, namespace, object, relation, subjectNamespace, subjectObject)
}

func (t *tupleBuilder) append(action pb.RelationTupleDelta_Action, namespace, object, relation, subjectNamespace, subjectObject string) {
	*t = append(*t, &pb.RelationTupleDelta{
		Action:        action,
		RelationTuple: subjectSetTuple(namespace, object, relation, subjectNamespace, subjectObject),
	})
}

// Len returns the number of pending deltas.
func (t tupleBuilder) Len() int {
	return len(t)
}
