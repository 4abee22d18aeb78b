package vpnsched

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Blob layout shared by every persisted record set:
//
//	magic[3] | version u8 | count u32 | records...
//
// Strings are a u32 length followed by the bytes. Instants are i64 unix
// milliseconds with 0 meaning unset. All integers are little-endian.
const (
	schedulesMagic    = "WVS"
	timersMagic       = "WVT"
	notificationMagic = "WVN"

	codecVersion byte = 1

	flagActive    byte = 1 << 0
	flagRecurring byte = 1 << 1
)

var (
	// ErrUnknownVersion is returned for blobs written by a newer schema.
	ErrUnknownVersion = errors.New("vpnsched: unknown codec version")
	// ErrCorrupt is returned for truncated or mislabeled blobs.
	ErrCorrupt = errors.New("vpnsched: corrupt blob")
)

// Sealer protects passwords at rest. Implementations must be reversible.
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

type encoder struct {
	b []byte
}

func newEncoder(magic string, count int) *encoder {
	e := &encoder{b: make([]byte, 0, 256)}
	e.b = append(e.b, magic...)
	e.b = append(e.b, codecVersion)
	e.u32(uint32(count))
	return e
}

func (e *encoder) u8(v byte) { e.b = append(e.b, v) }

func (e *encoder) u32(v uint32) { e.b = binary.LittleEndian.AppendUint32(e.b, v) }

func (e *encoder) i64(v int64) { e.b = binary.LittleEndian.AppendUint64(e.b, uint64(v)) }

func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.b = append(e.b, s...)
}

func (e *encoder) instant(t time.Time) { e.i64(millis(t)) }

// decoder keeps the first error and turns every later read into a no-op.
type decoder struct {
	b   []byte
	err error
}

func newDecoder(magic string, b []byte) (*decoder, int) {
	d := &decoder{b: b}
	if len(b) < len(magic)+1 || string(b[:len(magic)]) != magic {
		d.err = ErrCorrupt
		return d, 0
	}
	if v := b[len(magic)]; v != codecVersion {
		d.err = fmt.Errorf("%w: %d", ErrUnknownVersion, v)
		return d, 0
	}
	d.b = b[len(magic)+1:]
	return d, int(d.u32())
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > len(d.b) {
		d.err = ErrCorrupt
		return nil
	}
	p := d.b[:n]
	d.b = d.b[n:]
	return p
}

func (d *decoder) u8() byte {
	p := d.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (d *decoder) u32() uint32 {
	p := d.take(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (d *decoder) i64() int64 {
	p := d.take(8)
	if p == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(p))
}

func (d *decoder) str() string {
	n := d.u32()
	return string(d.take(int(n)))
}

func (d *decoder) instant() time.Time {
	ms := d.i64()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// count guards against a forged count larger than the remaining bytes.
func (d *decoder) count(n, minRecord int) int {
	if d.err == nil && n*minRecord > len(d.b) {
		d.err = ErrCorrupt
		return 0
	}
	return n
}

// EncodeSchedules serializes the schedule set. Passwords are sealed when
// sealer is non-nil.
func EncodeSchedules(list []*Schedule, sealer Sealer) ([]byte, error) {
	e := newEncoder(schedulesMagic, len(list))
	for _, s := range list {
		pw := s.Password
		if sealer != nil && pw != "" {
			var err error
			if pw, err = sealer.Seal(pw); err != nil {
				return nil, fmt.Errorf("seal password for %s: %w", s.ID, err)
			}
		}
		e.str(s.ID)
		e.str(s.Config)
		e.str(s.Name)
		e.str(s.Username)
		e.str(pw)
		e.instant(s.ConnectAt)
		e.instant(s.DisconnectAt)
		var flags byte
		if s.Active {
			flags |= flagActive
		}
		if s.Recurring {
			flags |= flagRecurring
		}
		e.u8(flags)
		e.u8(byte(s.RecurringDays))
		e.u32(uint32(len(s.BypassList)))
		for _, b := range s.BypassList {
			e.str(b)
		}
	}
	return e.b, nil
}

// DecodeSchedules parses a blob written by EncodeSchedules.
func DecodeSchedules(b []byte, sealer Sealer) ([]*Schedule, error) {
	d, n := newDecoder(schedulesMagic, b)
	n = d.count(n, 42)
	list := make([]*Schedule, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		s := &Schedule{
			ID:       d.str(),
			Config:   d.str(),
			Name:     d.str(),
			Username: d.str(),
			Password: d.str(),
		}
		s.ConnectAt = d.instant()
		s.DisconnectAt = d.instant()
		flags := d.u8()
		s.Active = flags&flagActive != 0
		s.Recurring = flags&flagRecurring != 0
		s.RecurringDays = Days(d.u8())
		nb := d.count(int(d.u32()), 4)
		for j := 0; j < nb && d.err == nil; j++ {
			s.BypassList = append(s.BypassList, d.str())
		}
		if d.err != nil {
			break
		}
		if sealer != nil && s.Password != "" {
			pw, err := sealer.Open(s.Password)
			if err != nil {
				return nil, fmt.Errorf("open password for %s: %w", s.ID, err)
			}
			s.Password = pw
		}
		list = append(list, s)
	}
	if d.err != nil {
		return nil, d.err
	}
	return list, nil
}

// TimerKind distinguishes the two timers a schedule can own.
type TimerKind string

const (
	// TimerConnect fires the connect path of a schedule.
	TimerConnect TimerKind = "connect"
	// TimerDisconnect fires the disconnect path of a schedule.
	TimerDisconnect TimerKind = "disconnect"
)

// TimerRecord is a persisted "wake me at At with (ID, Kind)" request.
type TimerRecord struct {
	ID   string
	Kind TimerKind
	At   time.Time
}

// EncodeTimers serializes armed timers.
func EncodeTimers(list []TimerRecord) []byte {
	e := newEncoder(timersMagic, len(list))
	for _, t := range list {
		e.str(t.ID)
		e.str(string(t.Kind))
		e.instant(t.At)
	}
	return e.b
}

// DecodeTimers parses a blob written by EncodeTimers.
func DecodeTimers(b []byte) ([]TimerRecord, error) {
	d, n := newDecoder(timersMagic, b)
	n = d.count(n, 16)
	list := make([]TimerRecord, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		t := TimerRecord{ID: d.str(), Kind: TimerKind(d.str()), At: d.instant()}
		if d.err == nil {
			list = append(list, t)
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return list, nil
}

// NotificationParams configures the host's status notification. The engine
// stores it without interpreting it.
type NotificationParams struct {
	Title string
	Text  string
	Icon  string
	ID    int64
}

// DefaultNotification is returned when nothing was configured.
var DefaultNotification = NotificationParams{
	Title: "VPN Scheduler",
	Text:  "Monitoring scheduled VPN connections",
	ID:    1001,
}

func encodeNotification(p NotificationParams) []byte {
	e := newEncoder(notificationMagic, 1)
	e.str(p.Title)
	e.str(p.Text)
	e.str(p.Icon)
	e.i64(p.ID)
	return e.b
}

func decodeNotification(b []byte) (NotificationParams, error) {
	d, _ := newDecoder(notificationMagic, b)
	p := NotificationParams{Title: d.str(), Text: d.str(), Icon: d.str(), ID: d.i64()}
	return p, d.err
}
