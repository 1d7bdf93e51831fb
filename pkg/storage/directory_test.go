package storage

import (
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerlan/fscp/pkg/protocol"
)

func openTestDB(t *testing.T) *ContactDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestSaveAndLookup(t *testing.T) {
	db := openTestDB(t)

	hash := protocol.Hash{0x01, 0x02}
	ep := netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), 12000)

	require.NoError(t, db.Save(hash, ep))

	got, err := db.Lookup(hash)
	require.NoError(t, err)
	assert.Equal(t, ep, got)

	// IPv6 endpoints round trip too.
	hash6 := protocol.Hash{0x03}
	ep6 := netip.AddrPortFrom(netip.MustParseAddr("2001:db8::1"), 443)
	require.NoError(t, db.Save(hash6, ep6))

	got6, err := db.Lookup(hash6)
	require.NoError(t, err)
	assert.Equal(t, ep6, got6)
}

func TestSaveUpdatesEndpoint(t *testing.T) {
	db := openTestDB(t)

	hash := protocol.Hash{0x01}
	first := netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), 12000)
	second := netip.AddrPortFrom(netip.MustParseAddr("198.51.100.7"), 12001)

	require.NoError(t, db.Save(hash, first))
	require.NoError(t, db.Save(hash, second))

	got, err := db.Lookup(hash)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestLookupMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Lookup(protocol.Hash{0xFF})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveInvalidEndpoint(t *testing.T) {
	db := openTestDB(t)

	err := db.Save(protocol.Hash{0x01}, netip.AddrPort{})
	assert.ErrorIs(t, err, ErrInvalidEndpoint)
}

func TestMergeAndAll(t *testing.T) {
	db := openTestDB(t)

	contacts := protocol.ContactMap{
		{0x01}: netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), 12000),
		{0x02}: netip.AddrPortFrom(netip.MustParseAddr("192.0.2.2"), 12001),
		{0x03}: netip.AddrPortFrom(netip.MustParseAddr("2001:db8::3"), 12002),
	}

	require.NoError(t, db.Merge(contacts))

	got, err := db.All()
	require.NoError(t, err)
	assert.Equal(t, contacts, got)
}

func TestPrune(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Save(protocol.Hash{0x01}, netip.AddrPortFrom(netip.MustParseAddr("192.0.2.1"), 12000)))
	require.NoError(t, db.Save(protocol.Hash{0x02}, netip.AddrPortFrom(netip.MustParseAddr("192.0.2.2"), 12001)))

	// Nothing is older than an hour ago.
	removed, err := db.Prune(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Everything is older than an hour from now.
	removed, err = db.Prune(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	_, err = db.Lookup(protocol.Hash{0x01})
	assert.ErrorIs(t, err, ErrNotFound)
}
