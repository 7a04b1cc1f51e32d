package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/familyhub/core/internal/domain/entities"
	"github.com/familyhub/core/internal/infrastructure/config"
	"github.com/familyhub/core/internal/infrastructure/logger"
)

// ErrNoEmailAddress is returned when the recipient has no e-mail on file
var ErrNoEmailAddress = errors.New("recipient has no email address")

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESDeliverer sends e-mail notifications through Amazon SES
type SESDeliverer struct {
	client    sesAPI
	fromEmail string
	fromName  string
	logger    *logger.Logger
}

// NewSESDeliverer loads AWS configuration for the configured region. It
// returns nil when no sender address is configured.
func NewSESDeliverer(ctx context.Context, cfg config.NotificationsConfig, appLogger *logger.Logger) (*SESDeliverer, error) {
	log := appLogger.WithComponent("ses")
	if cfg.SESFromEmail == "" {
		log.Info("Email delivery disabled: SES_FROM_EMAIL not configured")
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Infow("Email delivery enabled", "from", cfg.SESFromEmail, "region", cfg.SESRegion)

	return &SESDeliverer{
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.SESFromEmail,
		fromName:  cfg.SESFromName,
		logger:    log,
	}, nil
}

func (d *SESDeliverer) Deliver(ctx context.Context, n *entities.Notification, recipient *entities.FamilyMember) error {
	if recipient.Email == nil || *recipient.Email == "" {
		return ErrNoEmailAddress
	}

	from := d.fromEmail
	if d.fromName != "" {
		from = fmt.Sprintf("%s <%s>", d.fromName, d.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{*recipient.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(n.Title),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(fmt.Sprintf("Hi %s,\n\n%s\n", recipient.Name, n.Message)),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := d.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	d.logger.Infow("Email sent",
		"notification_id", n.ID,
		"recipient_id", recipient.ID,
		"message_id", aws.ToString(result.MessageId),
	)
	return nil
}
