package clockid

import (
	"crypto/rand"

	"github.com/google/uuid"
)

// roomCodeAlphabet excludes visually ambiguous characters (0/O, 1/I),
// matching spec.md §4.6's "ABCDEFGHJKLMNPQRSTUVWXYZ23456789".
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// IDSource is the random identifier source spec.md §2.1 names: room codes,
// participant ids, and the host token. The registry retries RoomCode on
// collision (spec.md §4.6); participant ids and host tokens use a 128-bit
// random token (spec.md §9) via google/uuid, the same library the teacher
// uses for correlation ids.
type IDSource interface {
	RoomCode() string
	ParticipantID() string
	HostToken() string
}

// RandomIDSource is the production IDSource.
type RandomIDSource struct{}

func (RandomIDSource) RoomCode() string {
	return randomCode(roomCodeLength)
}

func (RandomIDSource) ParticipantID() string {
	return uuid.New().String()
}

func (RandomIDSource) HostToken() string {
	return uuid.New().String()
}

// randomCode draws n letters from roomCodeAlphabet using crypto/rand,
// rejecting bytes that would bias the distribution (the same
// rejection-sampling shape as the pack's Seednode-partybox randomGameID).
func randomCode(n int) string {
	const maxByte = byte(255 - (256 % len(roomCodeAlphabet)))

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if b <= maxByte {
				out = append(out, roomCodeAlphabet[int(b)%len(roomCodeAlphabet)])
				if len(out) == n {
					break
				}
			}
		}
	}

	return string(out)
}
