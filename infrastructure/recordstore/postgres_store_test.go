package recordstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitovidale/video-publisher-service/domain"
)

func TestPostgresStore_BuildSelect(t *testing.T) {
	store := NewPostgresStore(nil)

	query, args, err := store.buildSelect(domain.TableVideoStatus, domain.QueryOptions{
		Where:   map[string]any{"upload_id": 12, "status": "ready"},
		OrderBy: "date_created.desc",
		Limit:   5,
		Offset:  10,
	})
	require.NoError(t, err)

	assert.Contains(t, query, "FROM records WHERE table_name = $1")
	assert.Contains(t, query, "data->>$2 = $3")
	assert.Contains(t, query, "data->>$4 = $5")
	assert.Contains(t, query, "ORDER BY date_created DESC")
	assert.Contains(t, query, "LIMIT 5")
	assert.Contains(t, query, "OFFSET 10")
	assert.Equal(t, []any{domain.TableVideoStatus, "status", "ready", "upload_id", "12"}, args)
}

func TestPostgresStore_BuildSelectOrdersByDataField(t *testing.T) {
	store := NewPostgresStore(nil)

	query, _, err := store.buildSelect(domain.TableVideoUpload, domain.QueryOptions{OrderBy: "user_id"})
	require.NoError(t, err)
	assert.Contains(t, query, "ORDER BY data->>'user_id' ASC")

	_, _, err = store.buildSelect(domain.TableVideoUpload, domain.QueryOptions{OrderBy: "x; DROP TABLE records"})
	assert.Error(t, err)

	_, _, err = store.buildSelect(domain.TableVideoUpload, domain.QueryOptions{Where: map[string]any{"a'b": 1}})
	assert.Error(t, err)
}

func TestPostgresStore_BuildUpdate(t *testing.T) {
	store := NewPostgresStore(nil)

	query, args, err := store.buildUpdate(domain.TableVideoStatus, "3f8c1c8e-2a8e-4c55-9d8b-7a3f2b1d0e11", 4, map[string]any{
		"status": "published",
		"uuid":   "must-not-leak",
	})
	require.NoError(t, err)

	assert.Contains(t, query, "UPDATE records SET data = data || $1::jsonb, version = version + 1, date_updated = NOW()")
	assert.Contains(t, query, "WHERE table_name = $2 AND uuid = $3 AND version = $4")
	assert.Contains(t, query, "RETURNING id, uuid, table_name, data, version, date_created, date_updated")
	require.Len(t, args, 4)
	assert.JSONEq(t, `{"status":"published"}`, args[0].(string))
	assert.Equal(t, 4, args[3])

	query, args, err = store.buildUpdate(domain.TableVideoStatus, "3f8c1c8e-2a8e-4c55-9d8b-7a3f2b1d0e11", -1, map[string]any{"status": "ready"})
	require.NoError(t, err)
	assert.NotContains(t, query, "version = $4")
	assert.Len(t, args, 3)
}

func TestRecordRow_ToMap(t *testing.T) {
	row := recordRow{ID: 7, UUID: "u", Data: []byte(`{"status":"ready","upload_id":3}`), Version: 2}

	m, err := row.toMap()
	require.NoError(t, err)

	var status domain.VideoStatus
	require.NoError(t, decode(m, &status))
	assert.Equal(t, int64(7), status.ID)
	assert.Equal(t, int64(3), status.UploadID)
	assert.Equal(t, 2, status.Version)
	assert.Equal(t, domain.StatusReady, status.Status)
}
