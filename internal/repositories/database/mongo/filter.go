package mongo

import (
	"fmt"
	"strconv"

	"github.com/SscSPs/bookkeeping_engine/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson"
)

// latestFirst is the ledger order: datetime, then commit timestamp, then
// insertion order, all descending.
var latestFirst = bson.D{
	{Key: "datetime", Value: -1},
	{Key: "timestamp", Value: -1},
	{Key: "_id", Value: -1},
}

// buildFilter translates a leg filter into a query document. Account prefixes
// become positional equality on account_path, so X:Y matches X:Y:AUD but not
// X:Yield.
func buildFilter(f domain.TransactionFilter) (bson.M, error) {
	q := bson.M{}
	if f.Book != "" {
		q["book"] = f.Book
	}
	if !f.JournalID.IsZero() {
		oid, err := objectID(f.JournalID)
		if err != nil {
			return nil, err
		}
		q["_journal"] = oid
	}
	if f.Approved != nil {
		q["approved"] = *f.Approved
	}
	if f.Voided != nil {
		q["voided"] = *f.Voided
	}
	if f.Start != nil || f.End != nil {
		r := bson.M{}
		if f.Start != nil {
			r["$gte"] = *f.Start
		}
		if f.End != nil {
			r["$lte"] = *f.End
		}
		q["datetime"] = r
	}
	for k, v := range f.Meta {
		q[fmt.Sprintf("meta.%s", k)] = v
	}

	var or bson.A
	for _, prefix := range f.Accounts {
		if len(prefix) == 0 {
			continue
		}
		clause := bson.M{}
		for i, segment := range prefix {
			clause["account_path."+strconv.Itoa(i)] = segment
		}
		or = append(or, clause)
	}
	switch len(or) {
	case 0:
	case 1:
		for k, v := range or[0].(bson.M) {
			q[k] = v
		}
	default:
		q["$or"] = or
	}
	return q, nil
}
