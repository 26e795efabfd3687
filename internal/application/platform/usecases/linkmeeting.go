package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// meetingMatchWindow is how far a business meeting's scheduled start may
// sit from the recorded start and still be treated as the same meeting.
const meetingMatchWindow = 30 * time.Minute

// fuzzyTitlePrefixLen bounds the title prefix used for containment
// matching inside the time window.
const fuzzyTitlePrefixLen = 50

// MeetingLinker attaches a downloaded recording to the rep's business
// meeting, synthesizing one when nothing matches.
type MeetingLinker struct {
	meetingRepo   meeting.Repository
	recordingRepo meeting.RecordingRepository
	logger        logger.Interface
}

func NewMeetingLinker(
	meetingRepo meeting.Repository,
	recordingRepo meeting.RecordingRepository,
	log logger.Interface,
) *MeetingLinker {
	return &MeetingLinker{
		meetingRepo:   meetingRepo,
		recordingRepo: recordingRepo,
		logger:        log,
	}
}

// Link resolves the business meeting for a record and ensures a recording
// artifact exists for it. Match order: the already linked meeting, then an
// exact join URL match, then a scheduled meeting near the recorded start
// with a similar title, then a synthesized completed meeting.
func (l *MeetingLinker) Link(ctx context.Context, conn *platform.Connection, rec *platform.MeetingRecord) (uint, error) {
	m, err := l.resolveMeeting(ctx, conn, rec)
	if err != nil {
		return 0, err
	}

	if m.Status != meeting.StatusCompleted {
		m.Complete()
		if err := l.meetingRepo.Update(ctx, m); err != nil {
			return 0, err
		}
	}

	if err := l.ensureRecordingArtifact(ctx, m.ID, rec, conn.Platform); err != nil {
		return 0, err
	}

	rec.LinkMeeting(m.ID)
	return m.ID, nil
}

func (l *MeetingLinker) resolveMeeting(ctx context.Context, conn *platform.Connection, rec *platform.MeetingRecord) (*meeting.Meeting, error) {
	if rec.MeetingID != nil {
		m, err := l.meetingRepo.GetByID(ctx, *rec.MeetingID)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}

	if rec.JoinURL != "" {
		m, err := l.meetingRepo.GetByJoinURL(ctx, conn.UserID, rec.JoinURL)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}

	if rec.StartTime != nil {
		m, err := l.matchInWindow(ctx, conn.UserID, rec)
		if err != nil {
			return nil, err
		}
		if m != nil {
			return m, nil
		}
	}

	return l.synthesizeMeeting(ctx, conn, rec)
}

// matchInWindow scans the rep's meetings scheduled around the recorded
// start and picks the first one whose title overlaps.
func (l *MeetingLinker) matchInWindow(ctx context.Context, salesRepID uint, rec *platform.MeetingRecord) (*meeting.Meeting, error) {
	from := rec.StartTime.Add(-meetingMatchWindow)
	to := rec.StartTime.Add(meetingMatchWindow)

	candidates, err := l.meetingRepo.ListInWindow(ctx, salesRepID, from, to)
	if err != nil {
		return nil, err
	}
	for _, m := range candidates {
		if titlesOverlap(m.Title, rec.Title) {
			return m, nil
		}
	}
	return nil, nil
}

func (l *MeetingLinker) synthesizeMeeting(ctx context.Context, conn *platform.Connection, rec *platform.MeetingRecord) (*meeting.Meeting, error) {
	title := rec.Title
	if title == "" {
		title = fmt.Sprintf("%s meeting %s", conn.Platform, rec.PlatformMeetingID)
	}

	m, err := meeting.NewMeeting(conn.UserID, title, meeting.StatusCompleted)
	if err != nil {
		return nil, err
	}
	m.JoinURL = rec.JoinURL
	m.Platform = conn.Platform
	m.ScheduledStart = rec.StartTime
	m.ScheduledEnd = rec.EndTime
	if m.ScheduledEnd == nil && rec.StartTime != nil && rec.DurationSeconds > 0 {
		end := rec.StartTime.Add(time.Duration(rec.DurationSeconds) * time.Second)
		m.ScheduledEnd = &end
	}

	if err := l.meetingRepo.Create(ctx, m); err != nil {
		return nil, err
	}
	l.logger.Infow("synthesized meeting for external recording",
		"meeting_id", m.ID,
		"sales_rep_id", conn.UserID,
		"platform", conn.Platform,
		"platform_meeting_id", rec.PlatformMeetingID)
	return m, nil
}

// ensureRecordingArtifact creates the meeting's recording row once.
// Pipeline replays reuse the existing artifact.
func (l *MeetingLinker) ensureRecordingArtifact(ctx context.Context, meetingID uint, rec *platform.MeetingRecord, p platform.Platform) error {
	existing, err := l.recordingRepo.GetByMeetingID(ctx, meetingID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	artifact, err := meeting.NewRecording(meetingID, rec.StoragePath, rec.StorageBucket, p)
	if err != nil {
		return err
	}
	artifact.MimeType = mimeTypeForRecord(rec.FileType)
	artifact.FileSizeBytes = rec.FileSizeBytes
	artifact.DurationSeconds = rec.DurationSeconds
	artifact.PlatformRecordID = rec.PlatformRecordingID
	return l.recordingRepo.Create(ctx, artifact)
}

func titlesOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if len(a) > fuzzyTitlePrefixLen {
		a = a[:fuzzyTitlePrefixLen]
	}
	if len(b) > fuzzyTitlePrefixLen {
		b = b[:fuzzyTitlePrefixLen]
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func mimeTypeForRecord(fileType string) string {
	switch strings.ToLower(fileType) {
	case "m4a", "audio_only", "audio":
		return "audio/mp4"
	case "mp3":
		return "audio/mpeg"
	case "mp4", "video":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
