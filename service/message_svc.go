package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ripplechat/ripple/auth"
	"github.com/ripplechat/ripple/errs"
	"github.com/ripplechat/ripple/id"
	"github.com/ripplechat/ripple/types"
)

const (
	messageMediaBucket = "message-media"

	// MaxMediaItemBytes is the max size per attachment: 5MB.
	MaxMediaItemBytes = 5 << 20
	maxMediaItems     = 4
	maxMediaRes       = 2000
)

var ErrUnsupportedMediaFormat = errs.NewInvalidArgumentError("Media", "Only PNG and JPEG images are supported")

func messageTopic(conversationID string) string { return "conversation_messages_" + conversationID }

// CreateMessage sends a message in a conversation the caller participates in.
// Attached images are re-encoded and uploaded before the row is written; on a
// store failure the uploads are removed again.
func (svc *Service) CreateMessage(ctx context.Context, in types.CreateMessage, media []io.ReadSeeker) (types.Message, error) {
	var out types.Message

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if len(media) > maxMediaItems {
		return out, errs.NewInvalidArgumentError("Media", fmt.Sprintf("At most %d attachments are allowed", maxMediaItems))
	}

	attachments, err := svc.processMedia(ctx, media)
	if err != nil {
		return out, err
	}

	paths := make([]string, len(attachments))
	for i, a := range attachments {
		paths[i] = a.Path
	}
	in.SetMediaPaths(paths)

	if err := in.Validate(); err != nil {
		return out, err
	}

	cleanup, err := svc.Blob.UploadMany(ctx, messageMediaBucket, attachments)
	if err != nil {
		return out, err
	}

	out, err = svc.Store.CreateMessage(ctx, in)
	if err != nil {
		go cleanup()
		return out, err
	}

	out.SetMediaURLs(svc.mediaURLPrefix)

	svc.broadcastMessage(out)

	return out, nil
}

func (svc *Service) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	if err := in.Validate(); err != nil {
		return out, err
	}

	out, err := svc.Store.Messages(ctx, in)
	if err != nil {
		return out, err
	}

	for i := range out.Items {
		out.Items[i].SetMediaURLs(svc.mediaURLPrefix)
	}

	return out, nil
}

// MessageStream subscribes to new messages in a conversation. The stream ends
// when ctx is done. Membership is checked once up front.
func (svc *Service) MessageStream(ctx context.Context, conversationID string) (<-chan types.Message, error) {
	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	if !id.Valid(conversationID) {
		return nil, errs.NewInvalidArgumentError("ConversationID", "Conversation ID is invalid")
	}

	retrieve := types.RetrieveConversation{ConversationID: conversationID}
	retrieve.SetLoggedInUserID(loggedInUser.ID)
	if _, err := svc.Store.Conversation(ctx, retrieve); err != nil {
		return nil, err
	}

	ch := make(chan types.Message, 8)

	unsub, err := svc.PubSub.Sub(messageTopic(conversationID), func(data []byte) {
		var msg types.Message
		if err := decodeGob(data, &msg); err != nil {
			svc.logger.Error("gob decode message", "err", err)
			return
		}

		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, errs.NewUnavailableError("could not subscribe to messages")
	}

	go func() {
		<-ctx.Done()
		if err := unsub(); err != nil {
			svc.logger.Error("unsubscribe message stream", "conversation_id", conversationID, "err", err)
		}
		close(ch)
	}()

	return ch, nil
}

func (svc *Service) broadcastMessage(msg types.Message) {
	b, err := encodeGob(msg)
	if err != nil {
		svc.logger.Error("gob encode message", "err", err)
		return
	}

	if err := svc.PubSub.Pub(messageTopic(msg.ConversationID), b); err != nil {
		svc.logger.Error("publish message", "conversation_id", msg.ConversationID, "err", err)
	}
}

func (svc *Service) processMedia(ctx context.Context, media []io.ReadSeeker) ([]types.Attachment, error) {
	if len(media) == 0 {
		return nil, nil
	}

	now := time.Now()
	batchID := id.Generate()
	attachments := make([]types.Attachment, len(media))

	g, ctx := errgroup.WithContext(ctx)
	for i, item := range media {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			ct, err := detectContentType(item)
			if err != nil {
				return err
			}

			if ct != "image/png" && ct != "image/jpeg" {
				return ErrUnsupportedMediaFormat
			}

			img, err := imaging.Decode(io.LimitReader(item, MaxMediaItemBytes), imaging.AutoOrientation(true))
			if err == image.ErrFormat {
				return ErrUnsupportedMediaFormat
			}
			if err != nil {
				return fmt.Errorf("decode media item: %w", err)
			}

			if img.Bounds().Dx() > maxMediaRes || img.Bounds().Dy() > maxMediaRes {
				img = imaging.Fit(img, maxMediaRes, maxMediaRes, imaging.Lanczos)
			}

			format := imaging.JPEG
			ext := "jpg"
			if ct == "image/png" {
				format = imaging.PNG
				ext = "png"
			}

			buf := &bytes.Buffer{}
			if err := imaging.Encode(buf, img, format); err != nil {
				return fmt.Errorf("encode media item: %w", err)
			}

			fileName, err := gonanoid.New()
			if err != nil {
				return fmt.Errorf("generate media item filename: %w", err)
			}

			attachment := types.Attachment{
				Path:        fmt.Sprintf("%d/%d/%d/%s_%s_%d.%s", now.Year(), now.Month(), now.Day(), batchID, fileName, i, ext),
				ContentType: ct,
				FileSize:    uint64(buf.Len()),
			}
			attachment.SetReader(bytes.NewReader(buf.Bytes()))
			attachments[i] = attachment

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return attachments, nil
}

func detectContentType(r io.ReadSeeker) (string, error) {
	// http.DetectContentType uses at most 512 bytes to make its decision.
	h := make([]byte, 512)
	n, err := r.Read(h)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("detect content type: read head: %w", err)
	}

	// Reset the reader so it can be used again.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("detect content type: seek to start: %w", err)
	}

	mt, _, err := mime.ParseMediaType(http.DetectContentType(h[:n]))
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}

	return mt, nil
}
