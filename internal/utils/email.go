package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"autostore_back_end/internal/models"
)

func sendEmail(to, subject, htmlBody string) error {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		// Pas de SMTP configuré (dev, tests) : on n'envoie rien.
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(envOr("SMTP_FROM", "noreply@autostore.com")); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(host,
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSend(msg)
}

func vehiclesTableHTML(vehicles []models.Vehicle) string {
	rows := ""
	for _, v := range vehicles {
		rows += fmt.Sprintf(`
			<tr>
				<td>%s %s (%d)</td>
				<td>%s</td>
				<td>%.2f</td>
			</tr>`, v.Brand, v.Model, v.Year, v.VIN, v.Price)
	}
	return rows
}

// SendPendingOrderEmail envoie le récapitulatif d'une commande en attente de
// paiement, avec le lien d'approbation et son QR code.
func SendPendingOrderEmail(to string, order *models.Order) {
	if order.PaymentApprovalLink == "" {
		return
	}

	qr, err := GenerateApprovalQR(order.PaymentApprovalLink)
	if err != nil {
		log.Println("⚠️ Erreur génération QR d'approbation:", err)
		qr = ""
	}

	qrHTML := ""
	if qr != "" {
		qrHTML = fmt.Sprintf(`<p>Ou scannez ce code :</p><img src="%s" alt="QR paiement" />`, qr)
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Votre commande #%d est en attente de paiement</h2>
		<p>Bonjour,</p>
		<p>Merci pour votre commande. Pour la finaliser, approuvez le paiement :</p>
		<p><a href="%s">Payer maintenant (%.2f)</a></p>
		%s
		<table style="width: 100%%; border-collapse: collapse;">%s</table>
		<p>Adresse de livraison : %s</p>
	</div>
</body>
</html>`, order.ID, order.PaymentApprovalLink, order.Total, qrHTML,
		vehiclesTableHTML(order.Vehicles), order.ShippingAddress)

	if err := sendEmail(to, fmt.Sprintf("Commande AutoStore #%d : paiement en attente", order.ID), html); err != nil {
		log.Println("❌ Erreur envoi e-mail commande en attente:", err)
	}
}

// Mailer implémente orders.Notifier : confirmation envoyée après capture.
type Mailer struct{}

func (Mailer) OrderPaid(order *models.Order) {
	if order.User == nil || order.User.Email == "" {
		return
	}

	html := fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Paiement confirmé pour la commande #%d</h2>
		<p>Bonjour %s,</p>
		<p>Votre paiement de %.2f a bien été capturé. Votre commande est en préparation.</p>
		<table style="width: 100%%; border-collapse: collapse;">%s</table>
		<p>Adresse de livraison : %s</p>
	</div>
</body>
</html>`, order.ID, order.User.Name, order.Total,
		vehiclesTableHTML(order.Vehicles), order.ShippingAddress)

	if err := sendEmail(order.User.Email, fmt.Sprintf("Confirmation de paiement de la commande AutoStore #%d", order.ID), html); err != nil {
		log.Println("❌ Erreur envoi e-mail confirmation:", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
