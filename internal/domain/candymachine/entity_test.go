package candymachine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testAuthority  = "11111111111111111111111111111111"
	testCollection = "SysvarRent111111111111111111111111111111111"
)

func testSettings() ConfigLineSettings {
	return ConfigLineSettings{
		PrefixName:   "Drop #",
		NameLength:   4,
		PrefixURI:    "https://example.com/meta/",
		URILength:    10,
		IsSequential: true,
	}
}

func TestNewCandyMachine(t *testing.T) {
	require := require.New(t)

	m, err := New(testAuthority, testCollection, 10, true, testSettings())
	require.NoError(err)
	require.Equal(testAuthority, m.Authority)
	require.Equal(testAuthority, m.MintAuthority)
	require.Equal(testCollection, m.CollectionMint)
	require.EqualValues(10, m.ItemsAvailable)
	require.Zero(m.ItemsLoaded)
	require.Zero(m.ItemsRedeemed)

	_, err = New("bogus", testCollection, 10, true, testSettings())
	require.ErrorIs(err, ErrInvalidAuthority)

	_, err = New(testAuthority, "bogus", 10, true, testSettings())
	require.ErrorIs(err, ErrInvalidCollectionMint)

	_, err = New(testAuthority, testCollection, 0, true, testSettings())
	require.ErrorIs(err, ErrZeroCapacity)
}

func TestLoadLinesCapacity(t *testing.T) {
	require := require.New(t)

	m, err := New(testAuthority, testCollection, 3, true, testSettings())
	require.NoError(err)

	require.NoError(m.LoadLines([]ConfigLine{{Name: "1", URI: "1.json"}, {Name: "2", URI: "2.json"}}))
	require.EqualValues(2, m.ItemsLoaded)

	// third slot fills to capacity
	require.NoError(m.LoadLines([]ConfigLine{{Name: "3", URI: "3.json"}}))
	require.EqualValues(3, m.ItemsLoaded)

	// a fourth line would exceed itemsAvailable
	err = m.LoadLines([]ConfigLine{{Name: "4", URI: "4.json"}})
	require.ErrorIs(err, ErrCapacityExceeded)
	require.EqualValues(3, m.ItemsLoaded)
}

func TestLoadLinesTemplateBounds(t *testing.T) {
	require := require.New(t)

	m, err := New(testAuthority, testCollection, 5, true, testSettings())
	require.NoError(err)

	err = m.LoadLines([]ConfigLine{{Name: "12345", URI: "1.json"}}) // name suffix > 4
	require.ErrorIs(err, ErrNameSuffixTooLong)
	require.Zero(m.ItemsLoaded)

	err = m.LoadLines([]ConfigLine{{Name: "1", URI: "12345678901"}}) // uri suffix > 10
	require.ErrorIs(err, ErrURISuffixTooLong)
	require.Zero(m.ItemsLoaded)
}

func TestRedeemMonotonic(t *testing.T) {
	require := require.New(t)

	m, err := New(testAuthority, testCollection, 2, true, testSettings())
	require.NoError(err)
	require.NoError(m.LoadLines([]ConfigLine{{Name: "1", URI: "1.json"}, {Name: "2", URI: "2.json"}}))

	require.EqualValues(2, m.Remaining())
	require.NoError(m.Redeem())
	require.EqualValues(1, m.ItemsRedeemed)
	require.NoError(m.Redeem())
	require.EqualValues(2, m.ItemsRedeemed)
	require.Zero(m.Remaining())

	// itemsRedeemed never exceeds itemsLoaded
	err = m.Redeem()
	require.ErrorIs(err, ErrSupplyExhausted)
	require.EqualValues(2, m.ItemsRedeemed)
}

func TestSetSettingsImmutable(t *testing.T) {
	require := require.New(t)

	m, err := New(testAuthority, testCollection, 1, false, testSettings())
	require.NoError(err)
	require.ErrorIs(m.SetSettings(ConfigLineSettings{}), ErrImmutable)

	m2, err := New(testAuthority, testCollection, 1, true, testSettings())
	require.NoError(err)
	require.NoError(m2.SetSettings(ConfigLineSettings{PrefixName: "X"}))
	require.Equal("X", m2.Settings.PrefixName)
}

func TestLineRendering(t *testing.T) {
	require := require.New(t)
	s := testSettings()

	l := s.Line(0, "0.json")
	require.Equal("1", l.Name) // 1-based numbering
	require.Equal("0.json", l.URI)

	l = s.Line(9, "9.json")
	require.Equal("10", l.Name)

	require.Equal("Drop #7", s.FullName("7"))
	require.Equal("https://example.com/meta/7.json", s.FullURI("7.json"))
}

func TestExpectedStateDiff(t *testing.T) {
	require := require.New(t)

	m := CandyMachine{
		Authority:      testAuthority,
		CollectionMint: testCollection,
		ItemsLoaded:    5,
		ItemsRedeemed:  2,
	}

	// exact match: no mismatches
	diff := ExpectedState{
		ItemsRedeemed:  2,
		ItemsLoaded:    5,
		Authority:      testAuthority,
		CollectionMint: testCollection,
	}.Diff(m)
	require.Empty(diff)

	// every diverging field is reported, not just the first
	diff = ExpectedState{
		ItemsRedeemed:  3,
		ItemsLoaded:    6,
		Authority:      testCollection, // deliberately wrong
		CollectionMint: testAuthority,  // deliberately wrong
	}.Diff(m)
	require.Len(diff, 4)
	require.Equal("itemsRedeemed", diff[0].Field)
	require.Equal("itemsLoaded", diff[1].Field)
	require.Equal("authority", diff[2].Field)
	require.Equal("collectionMint", diff[3].Field)
	require.Contains(diff[0].String(), "want 3, got 2")

	// empty expected addresses are skipped (counts-only verification)
	diff = ExpectedState{ItemsRedeemed: 2, ItemsLoaded: 5}.Diff(m)
	require.Empty(diff)
}
