package gameclient

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

// ClientProfile is the randomized fingerprint one provisioning attempt
// presents: user agent, locale, timezone and viewport-equivalent metadata.
// A fresh profile is rolled once per attempt so repeated attempts do not
// share an identical fingerprint.
type ClientProfile struct {
	UserAgent      string
	AcceptLanguage string
	Timezone       string
	ViewportWidth  int
	ViewportHeight int
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:128.0) Gecko/20100101 Firefox/128.0",
}

var locales = []string{
	"en-US,en;q=0.9",
	"pt-BR,pt;q=0.9,en;q=0.8",
	"es-ES,es;q=0.9,en;q=0.7",
	"en-GB,en;q=0.9",
}

var timezones = []string{
	"America/Sao_Paulo",
	"America/New_York",
	"Europe/Madrid",
	"Europe/London",
}

var viewports = [][2]int{
	{1920, 1080},
	{1600, 900},
	{1440, 900},
	{1366, 768},
}

// RandomProfile rolls a new client fingerprint.
func RandomProfile() ClientProfile {
	vp := viewports[rand.Intn(len(viewports))]
	return ClientProfile{
		UserAgent:      userAgents[rand.Intn(len(userAgents))],
		AcceptLanguage: locales[rand.Intn(len(locales))],
		Timezone:       timezones[rand.Intn(len(timezones))],
		ViewportWidth:  vp[0],
		ViewportHeight: vp[1],
	}
}

// Apply stamps the profile onto an outgoing request.
func (p ClientProfile) Apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
}

// Viewport formats the viewport as WxH, the shape browser metadata endpoints
// expect.
func (p ClientProfile) Viewport() string {
	return fmt.Sprintf("%dx%d", p.ViewportWidth, p.ViewportHeight)
}

// HumanDelay sleeps a random duration in [min, max). Jittered rather than
// fixed so request timing does not form a detectable cadence. Returns early
// with the context's error on cancellation.
func HumanDelay(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
