package installer

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/internal/hooks"
	"github.com/fates3gx/sdk/internal/memory"
)

type fakeRedirect struct {
	enabled   bool
	enableErr error
	enables   int
	disables  int
}

func (r *fakeRedirect) Enable() error {
	r.enables++
	if r.enableErr != nil {
		return r.enableErr
	}
	r.enabled = true
	return nil
}

func (r *fakeRedirect) Disable() error {
	r.disables++
	r.enabled = false
	return nil
}

type fakePatcher struct {
	requests  []Request
	redirects map[uint32]*fakeRedirect
	failOn    map[hooks.ID]error
	enableErr map[hooks.ID]error
}

func newFakePatcher() *fakePatcher {
	return &fakePatcher{
		redirects: make(map[uint32]*fakeRedirect),
		failOn:    make(map[hooks.ID]error),
		enableErr: make(map[hooks.ID]error),
	}
}

func (p *fakePatcher) Install(req Request) (Redirect, error) {
	if err := p.failOn[req.ID]; err != nil {
		return nil, err
	}
	p.requests = append(p.requests, req)
	r := &fakeRedirect{enableErr: p.enableErr[req.ID]}
	p.redirects[req.Canonical] = r
	return r, nil
}

func (p *fakePatcher) active() int {
	n := 0
	for _, r := range p.redirects {
		if r.enabled {
			n++
		}
	}
	return n
}

type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *testLogger) Debug(msg string, _ ...any) { l.log(msg) }
func (l *testLogger) Info(msg string, _ ...any)  { l.log(msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.log(msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.log(msg) }

func allHandlers(hooks.ID) (hooks.Callback, bool) {
	return func(hooks.Call) uint32 { return 0 }, true
}

// codeImage writes each descriptor's guard words at its canonical target.
func codeImage(t *testing.T, rows []hooks.Descriptor) *memory.Image {
	t.Helper()
	img := memory.NewImage(0x00100000, make([]byte, 0x00500000))
	for _, d := range rows {
		for i, w := range d.Guard {
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], w)
			_, err := img.WriteMemory(d.Canonical()+uint32(4*i), buf[:])
			require.NoError(t, err)
		}
	}
	return img
}

func testCatalog(t *testing.T) *hooks.Catalog {
	t.Helper()
	c, err := hooks.NewCatalog([]hooks.Descriptor{
		{ID: hooks.SEQMapStart, TargetVA: 0x003A4898, Guard: [3]uint32{0xE59F0050, 0xE92D4010, 0xE5900000}, Stability: hooks.Core},
		{ID: hooks.SEQTurnBegin, TargetVA: 0x003A54D8, Guard: [3]uint32{0xE92D4070, 0xE59F60DC, 0xE5960008}, Stability: hooks.Core},
		{ID: hooks.BTLFinalDamagePre, TargetVA: 0x00364FCC, Stability: hooks.Core},
		{ID: hooks.BTLGuardGaugeAdd, TargetVA: 0x00102DFE, Guard: [3]uint32{0xB510430B, 0, 0xD31A2A04}, Thumb: true, Stability: hooks.Optional},
	})
	require.NoError(t, err)
	return c
}

func newTestInstaller(t *testing.T, mem memory.Reader, p Patcher, r Resolver) (*Installer, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	in, err := New(testCatalog(t), mem, p, r, logger)
	require.NoError(t, err)
	return in, logger
}

func TestInitialize_Idempotent(t *testing.T) {
	c := testCatalog(t)
	in, _ := newTestInstaller(t, codeImage(t, c.All()), newFakePatcher(), ResolverFunc(allHandlers))

	s, _ := in.Status(hooks.SEQMapStart)
	assert.Equal(t, Uninitialized, s.State)

	in.Initialize()
	in.InstallCore()
	in.Initialize()

	s, _ = in.Status(hooks.SEQMapStart)
	assert.Equal(t, Installed, s.State, "second Initialize must not reset handles")
}

func TestInstall_CoreTier(t *testing.T) {
	c := testCatalog(t)
	p := newFakePatcher()
	in, _ := newTestInstaller(t, codeImage(t, c.All()), p, ResolverFunc(allHandlers))

	rep := in.InstallCore()

	assert.ElementsMatch(t, []hooks.ID{hooks.SEQMapStart, hooks.SEQTurnBegin, hooks.BTLFinalDamagePre}, rep.Installed)
	assert.Len(t, p.requests, 3)
	assert.Equal(t, 3, p.active())

	s, _ := in.Status(hooks.BTLGuardGaugeAdd)
	assert.Equal(t, Initialized, s.State, "optional tier untouched")
}

func TestInstall_TwiceNeverDoublePatches(t *testing.T) {
	c := testCatalog(t)
	p := newFakePatcher()
	in, _ := newTestInstaller(t, codeImage(t, c.All()), p, ResolverFunc(allHandlers))

	in.InstallCore()
	rep := in.InstallCore()

	assert.Empty(t, rep.Installed)
	assert.Len(t, rep.AlreadyInstalled, 3)
	assert.Len(t, p.requests, 3)
}

func TestInstall_ThumbTarget(t *testing.T) {
	c := testCatalog(t)
	p := newFakePatcher()
	in, _ := newTestInstaller(t, codeImage(t, c.All()), p, ResolverFunc(allHandlers))

	rep := in.InstallOptional()
	require.Equal(t, []hooks.ID{hooks.BTLGuardGaugeAdd}, rep.Installed)

	req := p.requests[0]
	assert.True(t, req.Thumb)
	assert.Equal(t, uint32(0x00102DFE), req.Canonical)
	assert.Equal(t, uint32(0x00102DFF), req.Target)
}

func TestInstall_GuardMismatchSkipsOnlyThatEntry(t *testing.T) {
	c := testCatalog(t)
	img := codeImage(t, c.All())
	require.NoError(t, memory.WriteU32(img, 0x003A54D8+8, 0xFFFFFFFF))

	p := newFakePatcher()
	in, logger := newTestInstaller(t, img, p, ResolverFunc(allHandlers))

	rep := in.InstallCore()

	assert.Equal(t, []hooks.ID{hooks.SEQTurnBegin}, rep.GuardFailed)
	assert.Len(t, rep.Installed, 2)
	s, _ := in.Status(hooks.SEQTurnBegin)
	assert.Equal(t, GuardFailed, s.State)
	assert.False(t, s.Enabled)
	assert.Contains(t, logger.messages, "guard check failed; skipping")
}

func TestInstall_ZeroGuardWordIsNotCompared(t *testing.T) {
	c := testCatalog(t)
	img := codeImage(t, c.All())
	// word 1 of the Thumb row is zero in the catalog
	require.NoError(t, memory.WriteU32(img, 0x00102DFE+4, 0x12345678))

	p := newFakePatcher()
	in, _ := newTestInstaller(t, img, p, ResolverFunc(allHandlers))

	rep := in.InstallOptional()
	assert.Equal(t, []hooks.ID{hooks.BTLGuardGaugeAdd}, rep.Installed)
}

func TestInstall_UnreadableTargetIsGuardFailure(t *testing.T) {
	in, _ := newTestInstaller(t, memory.NewImage(0, nil), newFakePatcher(), ResolverFunc(allHandlers))

	rep := in.InstallCore()

	assert.ElementsMatch(t, []hooks.ID{hooks.SEQMapStart, hooks.SEQTurnBegin}, rep.GuardFailed)
	// no guard, nothing to read
	assert.Equal(t, []hooks.ID{hooks.BTLFinalDamagePre}, rep.Installed)
}

func TestInstall_MissingHandlerSkips(t *testing.T) {
	c := testCatalog(t)
	p := newFakePatcher()
	resolver := ResolverFunc(func(id hooks.ID) (hooks.Callback, bool) {
		if id == hooks.SEQMapStart {
			return nil, false
		}
		return allHandlers(id)
	})
	in, _ := newTestInstaller(t, codeImage(t, c.All()), p, resolver)

	rep := in.InstallCore()

	assert.Equal(t, []hooks.ID{hooks.SEQMapStart}, rep.NoHandler)
	assert.Len(t, rep.Installed, 2)
	s, _ := in.Status(hooks.SEQMapStart)
	assert.Equal(t, NotInstalled, s.State)
}

func TestInstall_PatchFailureLeavesHandleInert(t *testing.T) {
	c := testCatalog(t)
	p := newFakePatcher()
	p.failOn[hooks.SEQMapStart] = errors.New("no trampoline space")
	p.enableErr[hooks.SEQTurnBegin] = errors.New("write protected")
	in, _ := newTestInstaller(t, codeImage(t, c.All()), p, ResolverFunc(allHandlers))

	rep := in.InstallCore()

	assert.ElementsMatch(t, []hooks.ID{hooks.SEQMapStart, hooks.SEQTurnBegin}, rep.PatchFailed)
	assert.Equal(t, []hooks.ID{hooks.BTLFinalDamagePre}, rep.Installed)

	s, _ := in.Status(hooks.SEQTurnBegin)
	assert.Equal(t, NotInstalled, s.State)
	assert.False(t, s.Enabled)
	assert.Equal(t, 1, p.redirects[0x003A54D8].disables, "failed enable is rolled back")
}

func TestEnableDisableAll(t *testing.T) {
	c := testCatalog(t)
	img := codeImage(t, c.All())
	require.NoError(t, memory.WriteU32(img, 0x003A54D8, 0))

	p := newFakePatcher()
	in, _ := newTestInstaller(t, img, p, ResolverFunc(allHandlers))
	in.InstallCore()
	in.InstallOptional()

	in.DisableAll()
	assert.Equal(t, 0, p.active())
	for _, s := range in.Statuses() {
		assert.False(t, s.Enabled, s.Name)
	}

	in.EnableAll()
	assert.Equal(t, 3, p.active())
	s, _ := in.Status(hooks.SEQTurnBegin)
	assert.False(t, s.Enabled, "guard-failed handle stays inert")
}

func TestInstallAll_IsCoreOnly(t *testing.T) {
	c := testCatalog(t)
	in, _ := newTestInstaller(t, codeImage(t, c.All()), newFakePatcher(), ResolverFunc(allHandlers))

	rep := in.InstallAll()

	assert.Equal(t, hooks.Core, rep.Tier)
	s, _ := in.Status(hooks.BTLGuardGaugeAdd)
	assert.NotEqual(t, Installed, s.State)
}

func TestStatuses_CoverIdentitySpace(t *testing.T) {
	in, _ := newTestInstaller(t, memory.NewImage(0, nil), newFakePatcher(), ResolverFunc(allHandlers))
	assert.Len(t, in.Statuses(), hooks.Count)

	_, ok := in.Status(hooks.ID(hooks.Count))
	assert.False(t, ok)
}

func TestVerifyGuard(t *testing.T) {
	d := hooks.Descriptor{Name: "x", TargetVA: 0x00100001, Guard: [3]uint32{1, 0, 3}}
	img := memory.NewImage(0x00100000, make([]byte, 16))
	require.NoError(t, memory.WriteU32(img, 0x00100000, 1))
	require.NoError(t, memory.WriteU32(img, 0x00100004, 2))
	require.NoError(t, memory.WriteU32(img, 0x00100008, 3))

	res, err := VerifyGuard(img, d)
	require.NoError(t, err)
	assert.True(t, res.Checked)
	assert.Equal(t, uint32(0x00100000), res.Address)
	assert.Equal(t, [3]uint32{1, 2, 3}, res.Current)

	require.NoError(t, memory.WriteU32(img, 0x00100008, 4))
	_, err = VerifyGuard(img, d)
	assert.ErrorIs(t, err, ErrGuardMismatch)

	res, err = VerifyGuard(img, hooks.Descriptor{TargetVA: 0x00100000})
	require.NoError(t, err)
	assert.False(t, res.Checked)
}
