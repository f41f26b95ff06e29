package route

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrEmptyBatch    = errors.New("no locations provided")
	ErrNotFound      = errors.New("session not found")
	ErrSessionExists = errors.New("session already exists")
)

var nowFn = time.Now

// RawPoint is an incoming location before storage shaping. A zero
// Timestamp means the client did not send one; it defaults to now,
// which degrades ordering fidelity but keeps the batch usable.
type RawPoint struct {
	Latitude  float64
	Longitude float64
	Timestamp time.Time
}

type SyncResult struct {
	SessionID string `json:"sessionId"`
	Date      string `json:"date"`
	Created   bool   `json:"created"`
}

// Store merges location batches into per-user route documents. The
// whole document is read, modified in memory and written back as one
// unit; the underlying store's document-granularity last-write-wins
// semantics are the concurrency contract. A single driver device is
// the only expected writer per session.
type Store struct {
	db   db.Querier
	zone *time.Location
}

func NewStore(q db.Querier, tzOffsetMin int) *Store {
	return &Store{
		db:   q,
		zone: time.FixedZone("bucket", tzOffsetMin*60),
	}
}

// SyncBatch merges a batch of points into the session identified by
// sessionID (generated when empty), creating the date bucket and
// session as needed. Re-syncing an existing session replaces its
// locations wholesale (the client re-sends its full point set at
// checkout), extends endTime monotonically and sets the name only if
// currently unset.
func (s *Store) SyncBatch(ctx context.Context, ownerID string, points []RawPoint, sessionID, tripName string) (SyncResult, error) {
	if len(points) == 0 {
		return SyncResult{}, ErrEmptyBatch
	}

	stored := make([]LocationPoint, len(points))
	for i, p := range points {
		stored[i] = s.storedPoint(p)
	}

	dateKey := stored[0].TimestampUTC.In(s.zone).Format("2006-01-02")
	if sessionID == "" {
		sessionID = "sess-" + uuid.NewString()
	}

	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return SyncResult{}, err
	}

	bucket, ok := doc.Dates[dateKey]
	if !ok {
		bucket = &DateBucket{}
		doc.Dates[dateKey] = bucket
	}

	lastTime := stored[len(stored)-1].TimestampUTC
	created := true
	found := false
	for i := range bucket.Sessions {
		if bucket.Sessions[i].SessionID != sessionID {
			continue
		}
		sess := &bucket.Sessions[i]
		sess.Locations = stored
		if lastTime.After(sess.EndTime.Time) {
			sess.EndTime = lastTime
		}
		if sess.Name == "" && tripName != "" {
			sess.Name = tripName
		}
		created = false
		found = true
		break
	}
	if !found {
		bucket.Sessions = append(bucket.Sessions, Session{
			SessionID: sessionID,
			StartTime: stored[0].TimestampUTC,
			EndTime:   lastTime,
			Name:      tripName,
			Locations: stored,
		})
	}

	if err := s.save(ctx, ownerID, doc); err != nil {
		return SyncResult{}, err
	}
	return SyncResult{SessionID: sessionID, Date: dateKey, Created: created}, nil
}

// AddSession inserts a fully-specified session under an explicit date.
func (s *Store) AddSession(ctx context.Context, ownerID, date, sessionID string, start, end time.Time, points []RawPoint, name string) error {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}

	for _, bucket := range doc.Dates {
		for i := range bucket.Sessions {
			if bucket.Sessions[i].SessionID == sessionID {
				return ErrSessionExists
			}
		}
	}

	bucket, ok := doc.Dates[date]
	if !ok {
		bucket = &DateBucket{}
		doc.Dates[date] = bucket
	}

	stored := make([]LocationPoint, len(points))
	for i, p := range points {
		stored[i] = s.storedPoint(p)
	}

	bucket.Sessions = append(bucket.Sessions, Session{
		SessionID: sessionID,
		StartTime: NewInstant(start),
		EndTime:   NewInstant(end),
		Name:      name,
		Locations: stored,
	})
	return s.save(ctx, ownerID, doc)
}

// AddLocation appends a single point to an existing session and
// extends its endTime when the point is newer.
func (s *Store) AddLocation(ctx context.Context, ownerID, date, sessionID string, p RawPoint) error {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}

	bucket, ok := doc.Dates[date]
	if !ok {
		return ErrNotFound
	}
	for i := range bucket.Sessions {
		if bucket.Sessions[i].SessionID != sessionID {
			continue
		}
		sess := &bucket.Sessions[i]
		pt := s.storedPoint(p)
		sess.Locations = append(sess.Locations, pt)
		if pt.TimestampUTC.After(sess.EndTime.Time) {
			sess.EndTime = pt.TimestampUTC
		}
		return s.save(ctx, ownerID, doc)
	}
	return ErrNotFound
}

// Dates returns the sorted date keys present for a user.
func (s *Store) Dates(ctx context.Context, ownerID string) ([]string, error) {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dates := make([]string, 0, len(doc.Dates))
	for d := range doc.Dates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

func (s *Store) SessionsByDate(ctx context.Context, ownerID, date string) ([]Session, error) {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	bucket, ok := doc.Dates[date]
	if !ok {
		return []Session{}, nil
	}
	return bucket.Sessions, nil
}

// SessionByID scans all date buckets and returns the owning date key
// with the session.
func (s *Store) SessionByID(ctx context.Context, ownerID, sessionID string) (string, Session, error) {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return "", Session{}, err
	}
	for date, bucket := range doc.Dates {
		for _, sess := range bucket.Sessions {
			if sess.SessionID == sessionID {
				return date, sess, nil
			}
		}
	}
	return "", Session{}, ErrNotFound
}

func (s *Store) DeleteSession(ctx context.Context, ownerID, sessionID string) error {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}
	for date, bucket := range doc.Dates {
		for i := range bucket.Sessions {
			if bucket.Sessions[i].SessionID != sessionID {
				continue
			}
			bucket.Sessions = append(bucket.Sessions[:i], bucket.Sessions[i+1:]...)
			if len(bucket.Sessions) == 0 {
				delete(doc.Dates, date)
			}
			return s.save(ctx, ownerID, doc)
		}
	}
	return ErrNotFound
}

// AddImage appends an image metadata record to a session.
func (s *Store) AddImage(ctx context.Context, ownerID, sessionID string, img ImageRecord) (ImageRecord, error) {
	doc, err := s.load(ctx, ownerID)
	if err != nil {
		return ImageRecord{}, err
	}
	for _, bucket := range doc.Dates {
		for i := range bucket.Sessions {
			if bucket.Sessions[i].SessionID != sessionID {
				continue
			}
			if img.ID == "" {
				img.ID = uuid.NewString()
			}
			if img.TimestampUTC.IsZero() {
				img.TimestampUTC = NewInstant(nowFn())
			}
			bucket.Sessions[i].Images = append(bucket.Sessions[i].Images, img)
			if err := s.save(ctx, ownerID, doc); err != nil {
				return ImageRecord{}, err
			}
			return img, nil
		}
	}
	return ImageRecord{}, ErrNotFound
}

func (s *Store) SessionImages(ctx context.Context, ownerID, sessionID string) ([]ImageRecord, error) {
	_, sess, err := s.SessionByID(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Images == nil {
		return []ImageRecord{}, nil
	}
	return sess.Images, nil
}

func (s *Store) storedPoint(p RawPoint) LocationPoint {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = nowFn()
	}
	instant := NewInstant(ts)
	return LocationPoint{
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		TimestampUTC: instant,
		TimestampIST: instant.In(s.zone).Format("2006-01-02T15:04:05-07:00"),
	}
}

// load reads the user's whole route document. Unmarshalling through
// Instant repairs any legacy wrapped timestamps; the next save writes
// them back in the plain shape.
func (s *Store) load(ctx context.Context, ownerID string) (*RouteDocument, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `SELECT doc FROM route_documents WHERE user_id=$1`, ownerID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return &RouteDocument{Dates: map[string]*DateBucket{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc RouteDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Dates == nil {
		doc.Dates = map[string]*DateBucket{}
	}
	return &doc, nil
}

func (s *Store) save(ctx context.Context, ownerID string, doc *RouteDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO route_documents (user_id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET doc=EXCLUDED.doc, updated_at=now()
	`, ownerID, raw)
	return err
}
