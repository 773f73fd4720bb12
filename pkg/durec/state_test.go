package durec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRegisterStatusChangeDetection(t *testing.T) {
	var s Status
	require.True(t, s.ApplyRegister(RegStatus, uint16(Recording)))
	require.Equal(t, Recording, s.State)
	require.False(t, s.ApplyRegister(RegStatus, uint16(Recording)))
}

func TestApplyRegisterStatusOutOfRangeDegradesToUnknown(t *testing.T) {
	var s Status
	s.ApplyRegister(RegStatus, 0xFF)
	require.Equal(t, Unknown, s.State)
}

func TestApplyRegisterFileCountResizesFiles(t *testing.T) {
	var s Status
	s.Files = []string{"a", "b"}
	changed := s.ApplyRegister(RegFileCount, 4)
	require.True(t, changed)
	require.Len(t, s.Files, 4)
	require.Equal(t, "a", s.Files[0])
	require.Equal(t, "b", s.Files[1])
	require.Equal(t, "", s.Files[2])
}

func TestApplyRegisterUnknownAddressIsNoop(t *testing.T) {
	var s Status
	changed := s.ApplyRegister(0xBEEF, 1)
	require.False(t, changed)
}

func TestSetFileNameOutOfRangeIsNoop(t *testing.T) {
	s := Status{Files: []string{"only"}}
	s.SetFileName(5, "ignored")
	require.Equal(t, []string{"only"}, s.Files)
	s.SetFileName(0, "renamed")
	require.Equal(t, "renamed", s.Files[0])
}

func TestStateStringCoversAllValues(t *testing.T) {
	require.Equal(t, "NoMedia", NoMedia.String())
	require.Equal(t, "FsError", FsError.String())
	require.Equal(t, "Initializing", Initializing.String())
	require.Equal(t, "Reinitializing", Reinitializing.String())
	require.Equal(t, "Unknown", Unknown.String())
	require.Equal(t, "Stopped", Stopped.String())
	require.Equal(t, "Recording", Recording.String())
	require.Equal(t, "Playing", Playing.String())
	require.Equal(t, "Paused", Paused.String())
	require.Equal(t, "Unknown", State(200).String())
}
