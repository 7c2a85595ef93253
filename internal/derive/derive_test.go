package derive

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func intPtr(v int) *int { return &v }

func TestSlug(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Black Beauty", "black-beauty"},
		{"  The Horse's Mouth  ", "the-horses-mouth"},
		{"Misty of Chincoteague!", "misty-of-chincoteague"},
		{"Don’t Look Back", "dont-look-back"},
		{"--Hello,   World--", "hello-world"},
		{"War Horse (2nd ed.)", "war-horse-2nd-ed"},
		{"Caballos y jinetes: ñandú", "caballos-y-jinetes-and"},
		{"1984", "1984"},
		{"!!!", "untitled"},
		{"", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.title))
		})
	}
}

func TestSlugIsDeterministic(t *testing.T) {
	assert.Equal(t, Slug("King of the Wind"), Slug("King of the Wind"))
	assert.Equal(t, Slug("King of the Wind"), Slug("KING of the wind"))
}

func TestDecadesOld(t *testing.T) {
	assert.Equal(t, 0, DecadesOld(nil, 2024))
	assert.Equal(t, 3, DecadesOld(intPtr(1994), 2024))
	assert.Equal(t, 2, DecadesOld(intPtr(1995), 2024))
	assert.Equal(t, 0, DecadesOld(intPtr(2024), 2024))
	assert.Equal(t, 0, DecadesOld(intPtr(2030), 2024))
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name     string
		year     *int
		editions int
		want     string
	}{
		{"three decades and two editions", intPtr(1994), 2, "18.00"},
		{"absent year", nil, 5, "15.00"},
		{"absent year capped", nil, 45, "50.00"},
		{"old book capped", intPtr(1877), 3, "50.00"},
		{"future year is not negative", intPtr(2100), 0, "10.00"},
		{"exactly at cap", nil, 40, "50.00"},
		{"negative editions treated as zero", nil, -3, "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price(tt.year, tt.editions, 2024)
			assert.Equal(t, tt.want, FormatPrice(got))
			assert.False(t, got.IsNegative())
		})
	}
}
