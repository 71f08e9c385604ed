package internal

import (
	"encoding/binary"

	"github.com/oklog/ulid/v2"

	"github.com/ahmed11551/tasbix09-sub001/es"
)

// SequenceRevision packs a store sequence number and the event's index within its
// change set into the ULID entropy so revisions stay ordered and reversible.
func SequenceRevision(timestamp uint64, sequence uint64, index uint16) (es.Revision, error) {
	var id ulid.ULID
	if err := id.SetTime(timestamp); err != nil {
		return "", err
	}

	entropy := make([]byte, 10)
	binary.BigEndian.PutUint64(entropy[:8], sequence)
	binary.BigEndian.PutUint16(entropy[8:], index)

	if err := id.SetEntropy(entropy); err != nil {
		return "", err
	}

	return es.Revision(id.String()), nil
}

func SequenceOf(revision es.Revision) (uint64, error) {
	parsed, err := ulid.Parse(revision.String())
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(parsed.Entropy()[:8]), nil
}
