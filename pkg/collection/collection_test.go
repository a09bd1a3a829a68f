package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluzed/massive-collections/pkg/types"
)

func newUsers(t *testing.T) (*Collection, *fakeConn) {
	t.Helper()
	conn := newFakeConn()
	c, err := New("users", WithConn(conn))
	require.NoError(t, err)
	return c, conn
}

func TestNewRequiresTableName(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, types.ErrMissingArg)
}

func TestOperationsWithoutConnection(t *testing.T) {
	ctx := context.Background()
	c, err := New("users")
	require.NoError(t, err)

	_, err = c.Get(ctx, 1)
	assert.ErrorIs(t, err, types.ErrNotConnected)
	_, err = c.Insert(ctx, types.Row{"a": 1})
	assert.ErrorIs(t, err, types.ErrNotConnected)
	_, err = c.Count(ctx, nil)
	assert.ErrorIs(t, err, types.ErrNotConnected)
	assert.ErrorIs(t, c.Flush(ctx, false), types.ErrNotConnected)

	conn := newFakeConn()
	c.SetConn(conn)
	_, err = c.Insert(ctx, types.Row{"a": 1})
	assert.NoError(t, err)
}

func TestPayloadValidation(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"insert nil", func() error { _, err := c.Insert(ctx, nil); return err }, types.ErrInvalidFormat},
		{"insert empty", func() error { _, err := c.Insert(ctx, types.Row{}); return err }, types.ErrCannotBeEmpty},
		{"update nil", func() error { _, err := c.Update(ctx, 1, nil); return err }, types.ErrInvalidFormat},
		{"update empty", func() error { _, err := c.Update(ctx, 1, types.Row{}); return err }, types.ErrCannotBeEmpty},
		{"updateAll empty", func() error { _, err := c.UpdateAll(ctx, nil, types.Row{}); return err }, types.ErrCannotBeEmpty},
		{"removeAll nil", func() error { _, err := c.RemoveAll(ctx, nil); return err }, types.ErrInvalidFormat},
		{"removeAll empty", func() error { _, err := c.RemoveAll(ctx, types.Conditions{}); return err }, types.ErrEmptyConditions},
		{"malformed or", func() error {
			_, err := c.Find(ctx, types.Conditions{"or": 1, "a->>'b'": 1}, types.FindOptions{})
			return err
		}, types.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), tt.want)
		})
	}

	assert.Empty(t, conn.statements(), "validation runs before any backend call")
	assert.Empty(t, conn.rows)
}

func TestInsertPipelineOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newUsers(t)

	var steps []string
	require.NoError(t, c.DBFormat(func(r types.Row) types.Row {
		steps = append(steps, "toDB")
		r["password"] = "hashed:" + r["password"].(string)
		return r
	}))
	require.NoError(t, c.PreHook("insert", func(_ context.Context, _ *Collection, data types.Row) (types.Row, error) {
		steps = append(steps, "pre")
		assert.Equal(t, "hashed:qwerty", data["password"], "pre-hook sees formatted payload")
		return nil, nil
	}))
	require.NoError(t, c.JSFormat(func(r types.Row) types.Row {
		steps = append(steps, "toJS")
		delete(r, "password")
		return r
	}))
	require.NoError(t, c.PostHook("insert", func(_ context.Context, _ *Collection, result any) {
		steps = append(steps, "post")
		row := result.(types.Row)
		assert.NotContains(t, row, "password", "post-hook sees JS-formatted row")
	}))

	input := types.Row{"username": "John Doe", "password": "qwerty"}
	row, err := c.Insert(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"toDB", "pre", "toJS", "post"}, steps)
	assert.Equal(t, int64(1), row["id"])
	assert.Equal(t, "John Doe", row["username"])
	assert.Equal(t, "qwerty", input["password"], "caller's map is not modified")
}

func TestPreHookReplacesPayload(t *testing.T) {
	ctx := context.Background()
	c, _ := newUsers(t)

	require.NoError(t, c.PreHook("insert", func(_ context.Context, _ *Collection, data types.Row) (types.Row, error) {
		out := data.Clone()
		out["role"] = "member"
		return out, nil
	}))

	row, err := c.Insert(ctx, types.Row{"username": "Jane"})
	require.NoError(t, err)
	assert.Equal(t, "member", row["role"])
}

func TestPreHookErrorAborts(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)
	denied := errors.New("denied")

	require.NoError(t, c.PreHook("insert", func(context.Context, *Collection, types.Row) (types.Row, error) {
		return nil, denied
	}))
	posted := false
	require.NoError(t, c.PostHook("insert", func(context.Context, *Collection, any) { posted = true }))

	_, err := c.Insert(ctx, types.Row{"username": "Jane"})
	assert.ErrorIs(t, err, denied)
	assert.False(t, posted)
	assert.Empty(t, conn.rows)
}

func TestGetUpdateRemove(t *testing.T) {
	ctx := context.Background()
	c, _ := newUsers(t)

	_, err := c.Insert(ctx, types.Row{"username": "John"})
	require.NoError(t, err)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "John", got["username"])

	missing, err := c.Get(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := c.Update(ctx, 1, types.Row{"username": "Johnny"})
	require.NoError(t, err)
	assert.Equal(t, "Johnny", updated["username"], "first element of the backend result")

	none, err := c.Update(ctx, 42, types.Row{"username": "x"})
	require.NoError(t, err)
	assert.Nil(t, none)

	var removedSeen any
	require.NoError(t, c.PostHook("remove", func(_ context.Context, _ *Collection, result any) { removedSeen = result }))
	removed, err := c.Remove(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Johnny", removed["username"])
	assert.Equal(t, removed, removedSeen)

	gone, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestFlushResetsSequence(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := c.Insert(ctx, types.Row{"username": name})
		require.NoError(t, err)
	}

	var atPostHook []string
	require.NoError(t, c.PostHook("flush", func(context.Context, *Collection, any) {
		atPostHook = conn.statements()
	}))

	require.NoError(t, c.Flush(ctx, true))
	assert.Equal(t, []string{"TRUNCATE users"}, atPostHook, "post-hook runs before the sequence restart")
	assert.Equal(t, []string{"TRUNCATE users", "ALTER SEQUENCE users_id_seq RESTART"}, conn.statements())

	row, err := c.Insert(ctx, types.Row{"username": "d"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), row["id"])
}

func TestFlushWithoutReset(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)

	_, err := c.Insert(ctx, types.Row{"username": "a"})
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx, false))
	assert.Equal(t, []string{"TRUNCATE users"}, conn.statements())

	row, err := c.Insert(ctx, types.Row{"username": "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), row["id"])
}

func TestCount(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		conds   types.Conditions
		sql     string
		rows    []types.Row
		want    int64
		wantErr error
	}{
		{
			name: "text count",
			sql:  "SELECT count(id) AS count FROM users",
			rows: []types.Row{{"count": "5"}},
			want: 5,
		},
		{
			name:  "numeric count with conditions",
			conds: types.Conditions{"username ILIKE": "jo%"},
			sql:   "SELECT count(id) AS count FROM users WHERE LOWER(username) LIKE LOWER('jo%')",
			rows:  []types.Row{{"count": int64(3)}},
			want:  3,
		},
		{
			name:    "missing count field",
			sql:     "SELECT count(id) AS count FROM users",
			rows:    []types.Row{{"total": 1}},
			wantErr: types.ErrCountMissing,
		},
		{
			name:    "no rows",
			sql:     "SELECT count(id) AS count FROM users",
			wantErr: types.ErrMalformedResult,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, conn := newUsers(t)
			conn.respond(tt.sql, tt.rows...)

			var posted any
			require.NoError(t, c.PostHook("count", func(_ context.Context, _ *Collection, result any) { posted = result }))

			got, err := c.Count(ctx, tt.conds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, posted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, posted)
		})
	}
}

func TestFindRoutes(t *testing.T) {
	ctx := context.Background()

	t.Run("normal path uses the table", func(t *testing.T) {
		c, conn := newUsers(t)
		_, err := c.Insert(ctx, types.Row{"username": "John"})
		require.NoError(t, err)

		rows, err := c.Find(ctx, types.Conditions{"username": "John"}, types.FindOptions{})
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, 1, conn.finds)
		assert.Empty(t, conn.statements())
	})

	t.Run("jsonb path runs literal SQL", func(t *testing.T) {
		c, conn := newUsers(t)
		q := "SELECT * FROM users WHERE details->>'city' = 'Paris' ORDER BY (details->>'age')::int DESC"
		conn.respond(q, types.Row{"id": int64(4), "details": `{"city":"Paris"}`})

		require.NoError(t, c.JSFormat(func(r types.Row) types.Row {
			r["formatted"] = true
			return r
		}))
		var seenConds types.Row
		require.NoError(t, c.PreHook("find", func(_ context.Context, _ *Collection, data types.Row) (types.Row, error) {
			seenConds = data
			return nil, nil
		}))

		rows, err := c.Find(ctx, types.Conditions{"details->>'city'": "Paris"}, types.FindOptions{
			Order: []types.OrderSpec{{Field: "details->>'age'", Direction: "DESC", Type: "int"}},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, true, rows[0]["formatted"])
		assert.Equal(t, []string{q}, conn.statements())
		assert.Equal(t, 0, conn.finds)
		assert.Equal(t, "Paris", seenConds["details->>'city'"])
	})
}

func TestUpdateAllNoMatchIssuesNoUpdate(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)
	conn.respond("SELECT * FROM users WHERE age < 0")

	var posted any
	require.NoError(t, c.PostHook("updateAll", func(_ context.Context, _ *Collection, result any) { posted = result }))

	rows, err := c.UpdateAll(ctx, types.Conditions{"age <": 0}, types.Row{"minor": true})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Equal(t, []types.Row{}, posted)
	assert.Equal(t, []string{"SELECT * FROM users WHERE age < 0"}, conn.statements())
}

func TestUpdateAllProtocol(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)

	conn.respond("SELECT * FROM users WHERE age < 18",
		types.Row{"id": int64(2), "age": int64(12)},
		types.Row{"id": "5", "age": int64(16)},
	)
	conn.respond("UPDATE users SET minor='true', note='it''s set' WHERE age < 18")
	conn.respond("SELECT * FROM users WHERE id IN (2,5)",
		types.Row{"id": int64(2), "minor": "true"},
		types.Row{"id": int64(5), "minor": "true"},
	)

	require.NoError(t, c.DBFormat(func(r types.Row) types.Row {
		r["note"] = "it's set"
		return r
	}))

	rows, err := c.UpdateAll(ctx, types.Conditions{"age <": 18}, types.Row{"minor": true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "true", rows[1]["minor"])
	assert.Equal(t, []string{
		"SELECT * FROM users WHERE age < 18",
		"UPDATE users SET minor='true', note='it''s set' WHERE age < 18",
		"SELECT * FROM users WHERE id IN (2,5)",
	}, conn.statements())
}

func TestUpdateAllMalformedIDs(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		row  types.Row
	}{
		{name: "missing id", row: types.Row{"name": "no id"}},
		{name: "null id", row: types.Row{"id": nil, "name": "null id"}},
		{name: "text id", row: types.Row{"id": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, conn := newUsers(t)
			conn.respond("SELECT * FROM users", tt.row)

			_, err := c.UpdateAll(ctx, nil, types.Row{"a": 1})
			assert.ErrorIs(t, err, types.ErrMalformedResult)
			assert.Len(t, conn.statements(), 1, "no UPDATE after a malformed selection")
		})
	}
}

func TestRemoveAllProtocol(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)

	snapshot := []types.Row{
		{"id": int64(1), "username": "John"},
		{"id": int64(3), "username": "Johnny"},
	}
	conn.respond("SELECT * FROM users WHERE LOWER(username) LIKE LOWER('jo%')", snapshot...)
	conn.respond("DELETE FROM users WHERE id IN (1,3)")

	rows, err := c.RemoveAll(ctx, types.Conditions{"username ILIKE": "jo%"})
	require.NoError(t, err)
	assert.Equal(t, snapshot, rows)
	assert.Equal(t, []string{
		"SELECT * FROM users WHERE LOWER(username) LIKE LOWER('jo%')",
		"DELETE FROM users WHERE id IN (1,3)",
	}, conn.statements(), "no re-fetch after the delete")
}

func TestRemoveAllNoMatch(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)
	conn.respond("SELECT * FROM users WHERE username = 'nobody'")

	rows, err := c.RemoveAll(ctx, types.Conditions{"username": "nobody"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Len(t, conn.statements(), 1)
}

func TestRemoveAllRejectsEmptyWhere(t *testing.T) {
	ctx := context.Background()

	for name, conds := range map[string]types.Conditions{
		"empty or":        {"or": []types.Conditions{}},
		"empty or member": {"or": []types.Conditions{{}}},
	} {
		t.Run(name, func(t *testing.T) {
			c, conn := newUsers(t)
			_, err := c.RemoveAll(ctx, conds)
			assert.ErrorIs(t, err, types.ErrEmptyConditions)
			assert.Empty(t, conn.statements())
		})
	}
}

func TestPreHookCannotReplaceConditions(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)
	conn.respond("SELECT count(id) AS count FROM users WHERE username = 'John'", types.Row{"count": int64(1)})

	require.NoError(t, c.PreHook("count", func(_ context.Context, _ *Collection, data types.Row) (types.Row, error) {
		data["username"] = "Jane"
		return types.Row{"age": 99}, nil
	}))

	n, err := c.Count(ctx, types.Conditions{"username": "John"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestBackendErrorsAreWrapped(t *testing.T) {
	ctx := context.Background()
	c, conn := newUsers(t)
	boom := errors.New("connection reset")
	conn.runErr = boom

	_, err := c.Count(ctx, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "count users")

	err = c.Flush(ctx, true)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, conn.statements(), 2, "restart is not attempted after a failed truncate")
}
