package objectstore

import "fmt"

// OpenMode selects the direction of a scoped handle.
// Text and binary modes behave identically: content is passed through as bytes (UTF-8 for text).
type OpenMode string

const (
	ModeRead        OpenMode = "r"
	ModeReadBinary  OpenMode = "rb"
	ModeWrite       OpenMode = "w"
	ModeWriteBinary OpenMode = "wb"
)

// ParseMode validates a mode string.
func ParseMode(mode string) (OpenMode, error) {
	switch m := OpenMode(mode); m {
	case ModeRead, ModeReadBinary, ModeWrite, ModeWriteBinary:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func (m OpenMode) IsRead() bool {
	return m == ModeRead || m == ModeReadBinary
}

func (m OpenMode) IsWrite() bool {
	return m == ModeWrite || m == ModeWriteBinary
}

func (m OpenMode) IsBinary() bool {
	return m == ModeReadBinary || m == ModeWriteBinary
}

func (m OpenMode) Validate() error {
	_, err := ParseMode(string(m))
	return err
}
