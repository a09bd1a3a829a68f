// Package collection wraps one SQL table in a Collection: a small
// data-access facade with CRUD operations, condition-based finds, bulk
// update and remove, and per-operation hooks and formatters.
//
// A Collection talks to its database through types.Conn. Structured
// primary-key operations go to the table accessor; anything compiled from
// conditions is sent as literal SQL through Conn.Run.
//
//	users, err := collection.New("users", collection.WithConn(backend))
//	if err != nil {
//	    return err
//	}
//	adults, err := users.Find(ctx, types.Conditions{"age >=": 18}, types.FindOptions{})
//
// Each operation runs the same pipeline: the DB formatter on outgoing
// data, the pre-hook, the backend call, the JS formatter on every returned
// row, then the post-hook. Validation errors are returned before any of
// these steps run.
package collection
