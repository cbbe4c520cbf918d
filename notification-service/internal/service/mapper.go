package service

import (
	"fmt"

	"decp/contracts/events"
	"decp/notification-service/internal/model"
)

// MapEvent translates one domain event into the notifications it implies.
// Business rules live here, in the mapping: a like only notifies the author
// when someone else pressed it (self-notifications are suppressed), a job
// application notifies the poster, an RSVP notifies the event creator.
// Baseline events (post created, user registered) notify nobody.
func MapEvent(ev *events.Event) []model.Notification {
	var out []model.Notification

	switch ev.Type {
	case events.TypePostLiked:
		p := ev.PostLiked
		if p.AuthorID != "" && p.AuthorID != p.LikerID {
			out = append(out, model.Notification{
				RecipientID: p.AuthorID,
				Type:        "post_like",
				Content:     "Someone liked your post.",
				Link:        fmt.Sprintf("/posts/%s", p.PostID),
			})
		}

	case events.TypeJobApplied:
		p := ev.JobApplied
		if p.PosterID != "" {
			out = append(out, model.Notification{
				RecipientID: p.PosterID,
				Type:        "job_application",
				Content:     "A new student applied to your job posting.",
				Link:        fmt.Sprintf("/jobs/%s/applications", p.JobID),
			})
		}

	case events.TypeEventRSVP:
		p := ev.EventRSVP
		if p.CreatorID != "" {
			out = append(out, model.Notification{
				RecipientID: p.CreatorID,
				Type:        "event_rsvp",
				Content:     "Someone RSVP'd to your event.",
				Link:        fmt.Sprintf("/events/%s", p.EventID),
			})
		}
	}

	return out
}
