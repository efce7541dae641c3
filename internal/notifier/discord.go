package notifier

import (
	"fmt"

	"github.com/backpack-city/backpack-api/internal/models"
	"github.com/bwmarrin/discordgo"
)

// Notifier tells the admin channel about claims and review decisions.
type Notifier interface {
	NotifyClaim(visitor models.Visitor) error
	NotifyVerification(visitor models.Visitor) error
}

// messageSender is the part of *discordgo.Session used here.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	n := &DiscordNotifier{channelID: channelID}
	if session != nil {
		n.session = session
	}
	return n
}

// NewDiscordSession creates a REST-only bot session; no gateway connection
// is opened since only channel messages are sent.
func NewDiscordSession(botToken string) (*discordgo.Session, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	return discordgo.New("Bot " + botToken)
}

func (n *DiscordNotifier) NotifyClaim(visitor models.Visitor) error {
	message := fmt.Sprintf("🧳 **New Ticket Submitted**\n**Visitor:** %s (#%d)\n**Code:** %s\n**From:** %s\n**Travel Date:** %s",
		visitor.Name,
		visitor.ID,
		visitor.ReferralCodeUsed,
		visitor.OriginCity,
		visitor.TravelDate,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyVerification(visitor models.Visitor) error {
	icon := "✅"
	if visitor.VerificationStatus == models.StatusRejected {
		icon = "❌"
	}
	message := fmt.Sprintf("%s **Verification Update**\n**Visitor:** %s (#%d)\n**Code:** %s\n**Status:** %s",
		icon,
		visitor.Name,
		visitor.ID,
		visitor.ReferralCodeUsed,
		visitor.VerificationStatus,
	)
	return n.send(message)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	if _, err := n.session.ChannelMessageSend(n.channelID, message); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyClaim(models.Visitor) error        { return nil }
func (Nop) NotifyVerification(models.Visitor) error { return nil }
