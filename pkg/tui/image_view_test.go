package tui

import (
	"strings"
	"testing"
	"time"

	"nftokview/pkg/watcher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Millisecond

func TestImageView_TimeoutLatchesError(t *testing.T) {
	svc := newFakeServices()
	v := newImageView(svc, "", 8, testTimeout)
	assert.Equal(t, displayLoading, v.Display())

	next := v.Update(fire(t, v.Init()))
	assert.Equal(t, displayError, v.Display())

	// The timer keeps firing but the error stays latched.
	for i := 0; i < 3; i++ {
		next = v.Update(fire(t, next))
		assert.Equal(t, displayError, v.Display())
	}
	assert.Empty(t, svc.calls)
}

func TestImageView_URLBeforeTimeoutCancelsTimer(t *testing.T) {
	svc := newFakeServices()
	v := newImageView(svc, "", 8, testTimeout)
	armed := v.Init()

	assert.Nil(t, v.SetURL(imageURL))
	assert.Nil(t, v.Update(fire(t, armed)))
	assert.Equal(t, displayLoading, v.Display())
	assert.Equal(t, 1, svc.count("FetchImage:"+imageURL))

	// Only a decode failure can show the error now.
	v.Update(watcher.Event{Type: watcher.EventImageFailed, Key: imageURL})
	assert.Equal(t, displayError, v.Display())
}

func TestImageView_LoadedShowsThumbnail(t *testing.T) {
	svc := newFakeServices()
	v := newImageView(svc, imageURL, 8, testTimeout)
	assert.Nil(t, v.Init())
	assert.Equal(t, displayLoading, v.Display())

	svc.images[imageURL] = testImage()
	v.Update(watcher.Event{Type: watcher.EventImageLoaded, Key: "https://other.example/x.png"})
	assert.Equal(t, displayLoading, v.Display())

	v.Update(watcher.Event{Type: watcher.EventImageLoaded, Key: imageURL})
	assert.Equal(t, displayImage, v.Display())

	out := v.View()
	assert.Equal(t, 8*4, strings.Count(out, "▀"))
	assert.Len(t, strings.Split(out, "\n"), 4)
}

func TestImageView_CachedImageSkipsFetch(t *testing.T) {
	svc := newFakeServices()
	svc.images[imageURL] = testImage()
	v := newImageView(svc, imageURL, 4, testTimeout)
	v.Init()

	assert.Equal(t, displayImage, v.Display())
	assert.Zero(t, svc.count("FetchImage:"+imageURL))
}

func TestImageView_PreviouslyFailedURL(t *testing.T) {
	svc := newFakeServices()
	svc.failed[imageURL] = true
	v := newImageView(svc, imageURL, 4, testTimeout)
	v.Init()

	assert.Equal(t, displayError, v.Display())
	assert.Zero(t, svc.count("FetchImage:"+imageURL))
}

func TestImageView_CloseCancelsTimer(t *testing.T) {
	v := newImageView(newFakeServices(), "", 8, testTimeout)
	armed := v.Init()
	v.Close()

	assert.Nil(t, v.Update(fire(t, armed)))
	assert.Equal(t, displayLoading, v.Display())
	assert.Nil(t, v.SetURL(imageURL))
}

func TestImageView_IgnoresOtherViewsTicks(t *testing.T) {
	svc := newFakeServices()
	a := newImageView(svc, "", 8, testTimeout)
	b := newImageView(svc, "", 8, testTimeout)
	tickA := a.Init()
	b.Init()

	assert.Nil(t, b.Update(fire(t, tickA)))
	assert.Equal(t, displayLoading, b.Display())
}

func TestImageView_URLChangeResetsState(t *testing.T) {
	svc := newFakeServices()
	v := newImageView(svc, imageURL, 8, testTimeout)
	v.Init()
	v.Update(watcher.Event{Type: watcher.EventImageFailed, Key: imageURL})
	require.Equal(t, displayError, v.Display())

	v.SetURL("https://img.example/other.png")
	assert.Equal(t, displayLoading, v.Display())
	assert.Equal(t, 1, svc.count("FetchImage:https://img.example/other.png"))
}

func TestImageView_ErrorBeforeURLIsKept(t *testing.T) {
	svc := newFakeServices()
	v := newImageView(svc, "", 8, testTimeout)
	v.Update(fire(t, v.Init()))
	require.Equal(t, displayError, v.Display())

	assert.Nil(t, v.SetURL(imageURL))
	assert.Equal(t, displayError, v.Display())
	assert.Equal(t, 1, svc.count("FetchImage:"+imageURL))
}

func TestImageView_ExactlyOneRendering(t *testing.T) {
	svc := newFakeServices()
	v := newImageView(svc, "", 6, testTimeout)

	check := func(want imageDisplay) {
		t.Helper()
		require.Equal(t, want, v.Display())
		out := v.View()
		if want == displayImage {
			assert.Equal(t, 6*3, strings.Count(out, "▀"))
		} else {
			assert.NotContains(t, out, "▀")
			assert.Len(t, strings.Split(out, "\n"), 3)
		}
	}

	armed := v.Init()
	check(displayLoading)
	v.SetURL(imageURL)
	check(displayLoading)
	v.Update(fire(t, armed))
	check(displayLoading)
	svc.images[imageURL] = testImage()
	v.Update(watcher.Event{Type: watcher.EventImageLoaded, Key: imageURL})
	check(displayImage)
	v.Update(watcher.Event{Type: watcher.EventImageFailed, Key: imageURL})
	check(displayError)
}
