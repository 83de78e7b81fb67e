// Package policy holds the authorization rules of the job board. Every rule
// is a pure function of the caller and the resource; a nil result allows the
// action and a *Denied explains why it was refused.
package policy

import (
	"errors"

	"github.com/IT21309038/Mini-Job-Board/internal/models"
)

var ErrForbidden = errors.New("forbidden")

type Denied struct {
	Reason string
}

func (d *Denied) Error() string {
	return "forbidden: " + d.Reason
}

func (d *Denied) Is(target error) bool {
	return target == ErrForbidden
}

func deny(reason string) error {
	return &Denied{Reason: reason}
}

func ManageJobs(c models.Caller) error {
	if c.Role != models.RoleEmployer {
		return deny("employer role required")
	}

	return nil
}

func UpdateJob(c models.Caller, job models.JobPost) error {
	return ownJob(c, job)
}

func DeleteJob(c models.Caller, job models.JobPost) error {
	return ownJob(c, job)
}

func ViewApplicants(c models.Caller, job models.JobPost) error {
	return ownJob(c, job)
}

func Apply(c models.Caller) error {
	if c.Role != models.RoleCandidate {
		return deny("candidate role required")
	}

	return nil
}

// DownloadResume allows the candidate who applied and the employer who posted
// the job the application targets.
func DownloadResume(viewer models.Caller, app models.ApplicationDetails) error {
	switch viewer.Role {
	case models.RoleCandidate:
		if app.CandidateID == viewer.UserID {
			return nil
		}
	case models.RoleEmployer:
		if app.Job.EmployerID == viewer.UserID {
			return nil
		}
	}

	return deny("not a party to this application")
}

func ownJob(c models.Caller, job models.JobPost) error {
	if err := ManageJobs(c); err != nil {
		return err
	}

	if job.EmployerID != c.UserID {
		return deny("not the owner of this job")
	}

	return nil
}
