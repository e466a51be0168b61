package linkedin

import (
	"regexp"

	"github.com/siddarth24/joblo/models"
)

var (
	bareIDRe  = regexp.MustCompile(`^\d+$`)
	viewIDRe  = regexp.MustCompile(`/jobs/view/(\d+)`)
	queryIDRe = regexp.MustCompile(`currentJobId=(\d+)`)
)

// IsJobURL reports whether the input should be routed through the
// markup-aware LinkedIn path: any linkedin.com URL, or a bare numeric ID.
func IsJobURL(raw string) bool {
	return bareIDRe.MatchString(raw) || containsHost(raw)
}

func containsHost(raw string) bool {
	return linkedinHostRe.MatchString(raw)
}

var linkedinHostRe = regexp.MustCompile(`(?i)linkedin\.com`)

// ExtractJobID pulls the numeric posting ID out of the supported URL shapes:
//
//	https://www.linkedin.com/jobs/view/4150892998/?alternateChannel=search
//	https://www.linkedin.com/jobs/collections/recommended/?currentJobId=4150892998
//	4150892998  (bare ID)
//
// No match yields an INVALID_JOB_ID error.
func ExtractJobID(raw string) (string, error) {
	if bareIDRe.MatchString(raw) {
		return raw, nil
	}
	if m := viewIDRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if m := queryIDRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	return "", models.NewExtractError(models.ErrCodeInvalidJobID,
		"no job ID found in URL: "+raw, nil)
}
