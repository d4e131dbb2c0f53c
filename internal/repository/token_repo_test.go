package repository

import (
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeTokens(t *testing.T) {
	t.Run("Legacy token already in array is not duplicated", func(t *testing.T) {
		tokens := mergeTokens([]string{"A", "B"}, "A")
		assert.Equal(t, []string{"A", "B"}, tokens)
	})

	t.Run("Legacy token is appended after the array", func(t *testing.T) {
		tokens := mergeTokens([]string{"A", "B"}, "C")
		assert.Equal(t, []string{"A", "B", "C"}, tokens)
	})

	t.Run("Blank entries are dropped", func(t *testing.T) {
		tokens := mergeTokens([]string{"", "A", "  ", "B"}, "")
		assert.Equal(t, []string{"A", "B"}, tokens)
	})

	t.Run("Duplicates inside the array collapse", func(t *testing.T) {
		tokens := mergeTokens([]string{"A", "A", "B"}, "")
		assert.Equal(t, []string{"A", "B"}, tokens)
	})

	t.Run("Empty inputs resolve to empty set", func(t *testing.T) {
		assert.Empty(t, mergeTokens(nil, ""))
	})
}

func TestTokenFields(t *testing.T) {
	t.Run("Reads array and legacy fields", func(t *testing.T) {
		arr, legacy := tokenFields(map[string]interface{}{
			"fcmTokens": []interface{}{"A", "B"},
			"fcmToken":  "C",
		})
		assert.Equal(t, []string{"A", "B"}, arr)
		assert.Equal(t, "C", legacy)
	})

	t.Run("Tolerates absent and mistyped fields", func(t *testing.T) {
		arr, legacy := tokenFields(map[string]interface{}{
			"fcmTokens": "not-an-array",
			"fcmToken":  42,
		})
		assert.Empty(t, arr)
		assert.Empty(t, legacy)
	})

	t.Run("Skips non-string array entries", func(t *testing.T) {
		arr, _ := tokenFields(map[string]interface{}{
			"fcmTokens": []interface{}{"A", 7, "B"},
		})
		assert.Equal(t, []string{"A", "B"}, arr)
	})
}

func TestPruneUpdate(t *testing.T) {
	t.Run("Filters invalid tokens from the array", func(t *testing.T) {
		update := pruneUpdate(map[string]interface{}{
			"fcmTokens": []interface{}{"A", "B", "C"},
		}, []string{"B"})

		assert.Equal(t, []string{"A", "C"}, update["fcmTokens"])
		assert.NotContains(t, update, "fcmToken")
	})

	t.Run("Deletes the legacy field when its value is invalid", func(t *testing.T) {
		update := pruneUpdate(map[string]interface{}{
			"fcmTokens": []interface{}{"A"},
			"fcmToken":  "B",
		}, []string{"B"})

		assert.Equal(t, []string{"A"}, update["fcmTokens"])
		assert.Equal(t, firestore.Delete, update["fcmToken"])
	})

	t.Run("Keeps a valid legacy field untouched", func(t *testing.T) {
		update := pruneUpdate(map[string]interface{}{
			"fcmTokens": []interface{}{"A", "B"},
			"fcmToken":  "C",
		}, []string{"A"})

		assert.Equal(t, []string{"B"}, update["fcmTokens"])
		assert.NotContains(t, update, "fcmToken")
	})
}

// fakeUserDoc simulates Firestore's optimistic transaction protocol: a
// commit against a document whose version moved since the read fails and the
// transaction body runs again against fresh data.
type fakeUserDoc struct {
	data    map[string]interface{}
	version int
}

func (d *fakeUserDoc) snapshot() (map[string]interface{}, int) {
	copied := make(map[string]interface{}, len(d.data))
	for k, v := range d.data {
		copied[k] = v
	}
	return copied, d.version
}

func (d *fakeUserDoc) commit(update map[string]interface{}, readVersion int) bool {
	if d.version != readVersion {
		return false
	}
	for k, v := range update {
		if v == firestore.Delete {
			delete(d.data, k)
			continue
		}
		// Store arrays the way Firestore hands them back on the next read.
		if arr, ok := v.([]string); ok {
			raw := make([]interface{}, len(arr))
			for i, s := range arr {
				raw[i] = s
			}
			d.data[k] = raw
			continue
		}
		d.data[k] = v
	}
	d.version++
	return true
}

func (d *fakeUserDoc) registerToken(token string) {
	arr, _ := d.data["fcmTokens"].([]interface{})
	d.data["fcmTokens"] = append(arr, token)
	d.version++
}

func TestPruneConflictingRegistration(t *testing.T) {
	// A device registers the fresh token T2 while a prune of the stale T1 is
	// in flight. The first commit must fail and the retried transaction must
	// see T2, so that both writes observably apply.
	doc := &fakeUserDoc{data: map[string]interface{}{
		"fcmTokens": []interface{}{"T1"},
	}}

	attempts := 0
	for {
		attempts++
		data, version := doc.snapshot()
		update := pruneUpdate(data, []string{"T1"})

		if attempts == 1 {
			doc.registerToken("T2")
		}
		if doc.commit(update, version) {
			break
		}
		require.Less(t, attempts, 5, "transaction should converge")
	}

	assert.Equal(t, 2, attempts, "first commit must conflict")
	final, _ := tokenFields(doc.data)
	assert.Equal(t, []string{"T2"}, final)
}
