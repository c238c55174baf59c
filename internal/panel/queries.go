package panel

import (
	"context"

	"github.com/muurk/omnilink/internal/message"
)

// query sends a request and narrows the response to T
func query[T message.Message](ctx context.Context, c *Client, op string, req message.Request) (T, error) {
	var zero T
	msg, err := c.send(ctx, op, req)
	if err != nil {
		return zero, err
	}
	typed, err := message.Expect[T](msg)
	if err != nil {
		return zero, classify(op, err)
	}
	return typed, nil
}

// SystemInformation returns the controller model and firmware version
func (c *Client) SystemInformation(ctx context.Context) (*message.SystemInformation, error) {
	return query[*message.SystemInformation](ctx, c, "system information", message.SystemInformationRequest)
}

// SystemStatus returns the controller clock, battery and active alarms
func (c *Client) SystemStatus(ctx context.Context) (*message.SystemStatus, error) {
	return query[*message.SystemStatus](ctx, c, "system status", message.SystemStatusRequest)
}

// SystemFormats returns the controller display formats
func (c *Client) SystemFormats(ctx context.Context) (*message.SystemFormats, error) {
	return query[*message.SystemFormats](ctx, c, "system formats", message.SystemFormatsRequest)
}

// ValidateCode checks a four digit user code against an area. An invalid
// code is not an error: the result has Valid() == false.
func (c *Client) ValidateCode(ctx context.Context, area byte, code string) (*message.CodeValidation, error) {
	req, err := message.NewSecurityCodeValidation(area, code)
	if err != nil {
		return nil, &PanelError{Type: ErrTypeAuthorization, Op: "validate code", Message: err.Error()}
	}
	return query[*message.CodeValidation](ctx, c, "validate code", req)
}
