package hop

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestInputValidate_NormalizesValidInput(t *testing.T) {
	in := Input{
		Name:        "  Cascade ",
		Origin:      " USA",
		Type:        "aroma ",
		Description: " floral, citrus ",
		AlphaLow:    "4.5",
		AlphaHigh:   " 7 ",
	}
	got, err := in.Validate()
	require.NoError(t, err)

	want := &Hop{
		Name:        "Cascade",
		Origin:      "USA",
		Type:        "aroma",
		Description: " floral, citrus ",
		Alpha:       Alpha{Low: ptr(4.5), High: ptr(7)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("normalized hop mismatch (-want +got):\n%s", diff)
	}
}

func TestInputValidate_EmptyAlphaIsUnset(t *testing.T) {
	got, err := Input{Name: "Saaz", Origin: "CZ", Type: "aroma"}.Validate()
	require.NoError(t, err)
	require.Nil(t, got.Alpha.Low)
	require.Nil(t, got.Alpha.High)
}

func TestInputValidate_ReportsEveryMissingField(t *testing.T) {
	_, err := Input{}.Validate()
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok, "expected *ValidationError, got %T", err)
	require.True(t, ve.Has("name"))
	require.True(t, ve.Has("origin"))
	require.True(t, ve.Has("type"))
	require.Equal(t, []string{"A name is required", "An origin is required", "A type is required"}, ve.Messages())
}

func TestInputValidate_WhitespaceOnlyIsMissing(t *testing.T) {
	_, err := Input{Name: "   ", Origin: "USA", Type: "aroma"}.Validate()
	require.Error(t, err)
	require.Equal(t, []string{"A name is required"}, Messages(err))
}

func TestInputValidate_RejectsUnknownVariety(t *testing.T) {
	for _, typ := range []string{"Aroma", "bitter", "dual", "dual-purpose", "hybrid"} {
		t.Run(typ, func(t *testing.T) {
			_, err := Input{Name: "Cascade", Origin: "USA", Type: typ}.Validate()
			require.Error(t, err)
			ve := err.(*ValidationError)
			require.True(t, ve.Has("type"))
			require.Len(t, ve.Fields, 1)
		})
	}
}

func TestInputValidate_AcceptsEveryVariety(t *testing.T) {
	for _, typ := range Varieties {
		_, err := Input{Name: "Cascade", Origin: "USA", Type: typ}.Validate()
		require.NoError(t, err, typ)
	}
}

func TestInputValidate_LengthRules(t *testing.T) {
	_, err := Input{Name: "ab", Origin: "U", Type: "aroma", Description: strings.Repeat("x", 501)}.Validate()
	require.Error(t, err)
	ve := err.(*ValidationError)
	require.True(t, ve.Has("name"))
	require.True(t, ve.Has("origin"))
	require.True(t, ve.Has("description"))
	require.Contains(t, ve.Messages(), "Name must be at least 3 characters")
	require.Contains(t, ve.Messages(), "Description must be at most 500 characters")

	_, err = Input{Name: "abc", Origin: "US", Type: "aroma", Description: strings.Repeat("x", 500)}.Validate()
	require.NoError(t, err)
}

func TestInputValidate_NonNumericAlpha(t *testing.T) {
	_, err := Input{Name: "Cascade", Origin: "USA", Type: "aroma", AlphaLow: "high", AlphaHigh: "7%"}.Validate()
	require.Error(t, err)
	ve := err.(*ValidationError)
	require.True(t, ve.Has("alpha.low"))
	require.True(t, ve.Has("alpha.high"))
}

func TestInputValidate_AlphaNumberForms(t *testing.T) {
	for raw, want := range map[string]float64{".5": 0.5, "5.": 5, "1e1": 10, "-2": -2, "+3.25": 3.25} {
		t.Run(raw, func(t *testing.T) {
			got, err := Input{Name: "Cascade", Origin: "USA", Type: "aroma", AlphaLow: raw, AlphaHigh: raw}.Validate()
			require.NoError(t, err)
			require.Equal(t, want, *got.Alpha.Low)
			require.Equal(t, want, *got.Alpha.High)
		})
	}
}

func TestInputValidate_RejectsNonFiniteAlpha(t *testing.T) {
	for _, raw := range []string{"NaN", "inf", "-Inf", "1e400", "4,5"} {
		_, err := Input{Name: "Cascade", Origin: "USA", Type: "aroma", AlphaHigh: raw}.Validate()
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, raw)
		require.Equal(t, []string{"Alpha high must be a number"}, ve.Messages(), raw)
	}
}

func TestInputValidate_BadAlphaReportedWithOtherFields(t *testing.T) {
	_, err := Input{Type: "aroma", AlphaLow: "x", AlphaHigh: "y"}.Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	for _, f := range []string{"name", "origin", "alpha.low", "alpha.high"} {
		require.True(t, ve.Has(f), f)
	}
}

func TestInputValidate_AlphaOrderNotEnforced(t *testing.T) {
	got, err := Input{Name: "Cascade", Origin: "USA", Type: "aroma", AlphaLow: "9", AlphaHigh: "3"}.Validate()
	require.NoError(t, err)
	require.Equal(t, 9.0, *got.Alpha.Low)
	require.Equal(t, 3.0, *got.Alpha.High)
}

func TestInputFrom_RoundTripsThroughValidate(t *testing.T) {
	h := &Hop{Name: "Magnum", Origin: "Germany", Type: "bittering", Alpha: Alpha{Low: ptr(12), High: ptr(14.5)}}
	got, err := InputFrom(h).Validate()
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseID(t *testing.T) {
	_, err := ParseID("not-an-id")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = ParseID("")
	require.ErrorIs(t, err, ErrNotFound)
	oid, err := ParseID("5f1d7f0a9b1e8a3c4d5e6f70")
	require.NoError(t, err)
	require.Equal(t, "5f1d7f0a9b1e8a3c4d5e6f70", oid.Hex())
}

func TestClone_DoesNotShareAlpha(t *testing.T) {
	h := &Hop{Name: "Cascade", Alpha: Alpha{Low: ptr(4.5)}}
	c := h.Clone()
	*c.Alpha.Low = 99
	require.Equal(t, 4.5, *h.Alpha.Low)
	require.Nil(t, (*Hop)(nil).Clone())
}
