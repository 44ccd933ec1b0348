package hooks

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CoversEveryIdentityInOrder(t *testing.T) {
	c := Default()
	require.Equal(t, Count, c.Len())

	for i, d := range c.All() {
		assert.Equal(t, ID(i), d.ID, "row %d out of order", i)
		assert.Equal(t, d.ID.Name(), d.Name)
	}
}

func TestDefault_FileOffsets(t *testing.T) {
	c := Default()

	d, ok := c.Lookup(BTLHitCalcMain)
	require.True(t, ok)
	assert.Equal(t, uint32(0x002A3588), d.FileOffset)

	d, ok = c.Lookup(BTLFinalDamagePost)
	require.True(t, ok)
	assert.Equal(t, uint32(0x0002B79C), d.FileOffset)
}

func TestDefault_Tiers(t *testing.T) {
	c := Default()

	optional := c.Tier(Optional)
	names := make([]string, 0, len(optional))
	for _, d := range optional {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{
		"BTL_CritCalc_Main",
		"BTL_FinalDamage_Post",
		"BTL_GuardGauge_Add",
		"BTL_GuardGauge_Spend",
		"HUD_Battle_HPGaugeUpdate",
		"BTL_SkillEffect_Apply",
	}, names)
	assert.Len(t, c.Tier(Core), Count-len(optional))
	assert.Empty(t, c.Tier(Experimental))
}

func TestDescriptor_Canonical(t *testing.T) {
	arm := Descriptor{TargetVA: 0x003A3589}
	assert.Equal(t, uint32(0x003A3588), arm.Canonical())
	assert.Equal(t, uint32(0x003A3588), arm.CallTarget())

	thumb := Descriptor{TargetVA: 0x00102DFF, Thumb: true}
	assert.Equal(t, uint32(0x00102DFE), thumb.Canonical())
	assert.Equal(t, uint32(0x00102DFF), thumb.CallTarget())
}

func TestDescriptor_HasGuard(t *testing.T) {
	d, _ := Default().Lookup(BTLFinalDamagePre)
	assert.False(t, d.HasGuard())

	d.Guard[2] = 1
	assert.True(t, d.HasGuard())
}

func TestNewCatalog_RejectsDuplicatesAndUnknown(t *testing.T) {
	_, err := NewCatalog([]Descriptor{{ID: SEQMapStart}, {ID: SEQMapStart}})
	assert.ErrorIs(t, err, ErrDuplicateHook)

	_, err = NewCatalog([]Descriptor{{ID: ID(Count)}})
	assert.ErrorIs(t, err, ErrUnknownHook)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("Unit_AddEquipSkill")
	assert.True(t, ok)
	assert.Equal(t, UNITSkillLearn, id)

	_, ok = ParseID("nope")
	assert.False(t, ok)
}

func TestDecode(t *testing.T) {
	src := `
hooks:
  - name: SEQ_MapStart
    targetVA: 0x003A4898
    guard: [0xE59F0050, 0xE92D4010, 0xE5900000]
  - name: BTL_GuardGauge_Add
    targetVA: 0x00102DFE
    fileOffset: 0x2DFE
    guard: [0xB510430B]
    thumb: true
    stability: optional
`
	c, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	d, ok := c.Lookup(SEQMapStart)
	require.True(t, ok)
	assert.Equal(t, uint32(0x002A4898), d.FileOffset)
	assert.Equal(t, [3]uint32{0xE59F0050, 0xE92D4010, 0xE5900000}, d.Guard)
	assert.Equal(t, Core, d.Stability)

	d, ok = c.Lookup(BTLGuardGaugeAdd)
	require.True(t, ok)
	assert.True(t, d.Thumb)
	assert.Equal(t, Optional, d.Stability)
	assert.Equal(t, [3]uint32{0xB510430B, 0, 0}, d.Guard)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown hook", "hooks:\n  - name: Nope\n    targetVA: 1\n"},
		{"too many guards", "hooks:\n  - name: SEQ_MapEnd\n    targetVA: 1\n    guard: [1, 2, 3, 4]\n"},
		{"bad tier", "hooks:\n  - name: SEQ_MapEnd\n    targetVA: 1\n    stability: shaky\n"},
		{"bad word", "hooks:\n  - name: SEQ_MapEnd\n    targetVA: zz\n"},
		{"unknown field", "hooks:\n  - name: SEQ_MapEnd\n    target: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestEncode_ReadsBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Default()))
	assert.Contains(t, buf.String(), "0x003A3588")

	c, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, Default().All(), c.All())
}
