package action

import (
	"context"
	"io"
	"net/url"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
)

// AttendanceAction claims the daily attendance stamp.
type AttendanceAction struct {
	path string
}

func NewAttendanceAction() *AttendanceAction {
	return &AttendanceAction{path: "/event/attendance/check"}
}

func (a *AttendanceAction) Name() string    { return "attendance" }
func (a *AttendanceAction) EventID() string { return "attendance" }

func (a *AttendanceAction) Execute(ctx context.Context, sess *gameclient.Session) (Result, error) {
	req, err := sess.NewFormRequest(a.path, url.Values{})
	if err != nil {
		return Result{}, err
	}
	resp, err := sess.Client.Do(req.WithContext(ctx))
	if err != nil {
		return Result{}, apperrors.Transport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, apperrors.Transport(err)
	}
	return ClassifyResponse(body), nil
}
