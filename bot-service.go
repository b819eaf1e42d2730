package main

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow/types"
	"golang.org/x/time/rate"
)

type chatSender interface {
	SendMessage(ctx context.Context, message string, recipient types.JID) error
}

type BotService struct {
	medilaboClient *MedilaboClient
	chatClient     chatSender
	limiter        *rate.Limiter
}

const botHelp = "🤖 Commandes disponibles :\n" +
	"!alerte <id patient> : niveau de risque d'un patient\n" +
	"!risques : liste des patients à risque\n" +
	"!aide : cette aide"

func (b *BotService) HandleMessage(ctx context.Context, senderName string, senderId types.JID, chatId types.JID, content string) {
	var recipient = senderId
	if chatId != (types.JID{}) {
		recipient = chatId
	}

	fields := strings.Fields(strings.ToLower(content))
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "!alerte":
		if len(fields) < 2 {
			b.reply(ctx, recipient, "Usage : !alerte <id patient>")
			return
		}
		log.Infof("'%s' asked for the risk level of patient '%s'", senderName, fields[1])
		b.SendRiskAlert(ctx, recipient, fields[1])
	case "!risques":
		log.Infof("'%s' asked for the risk summary", senderName)
		b.SendRiskSummary(ctx, recipient)
	case "!aide":
		b.reply(ctx, recipient, botHelp)
	}
}

func (b *BotService) SendRiskAlert(ctx context.Context, recipient types.JID, patientID string) {
	level, err := b.medilaboClient.FetchRiskLevel(ctx, patientID)
	if err != nil {
		log.Errorf("failed to fetch risk level for patient '%s'. error='%s'", patientID, err.Error())
		b.reply(ctx, recipient, NewRiskFailureDisplay(patientID, err).Plain())
		return
	}
	b.reply(ctx, recipient, NewRiskDisplay(patientID, level).Plain())
}

func (b *BotService) SendRiskSummary(ctx context.Context, recipient types.JID) {
	b.reply(ctx, recipient, "🤖 C'est reçu. Je calcule les alertes santé de tous les patients.")

	summary, err := BuildRiskSummary(ctx, b.medilaboClient, b.limiter)
	if err != nil {
		log.Errorf("failed to build risk summary. error='%s'", err.Error())
		b.reply(ctx, recipient, "Une erreur s'est produite lors du calcul des alertes. Veuillez réessayer plus tard")
		return
	}
	b.reply(ctx, recipient, summary.String())
}

func (b *BotService) reply(ctx context.Context, recipient types.JID, message string) {
	err := b.chatClient.SendMessage(ctx, message, recipient)
	if err != nil {
		log.Errorf("failed to send whatsapp message: %s", err.Error())
	}
}
