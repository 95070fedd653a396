package email

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

func send(to, subject, body string) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = user
	}
	if host == "" || port == "" || user == "" || pass == "" || from == "" {
		return fmt.Errorf("SMTP environment variables missing")
	}
	addr := fmt.Sprintf("%s:%s", host, port)
	auth := smtp.PlainAuth("", user, pass, host)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}

func SendWelcome(to string) error {
	subject := "Bienvenido a Pastafresca"
	body := "Gracias por registrarte. ¡Te esperamos con la pasta lista!"
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] welcome sent to %s", to)
	return nil
}

func SendPasswordChanged(to string) error {
	subject := "Contraseña actualizada"
	body := "Tu contraseña ha sido cambiada satisfactoriamente. Si no fuiste tú, contacta soporte."
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] password change notification sent to %s", to)
	return nil
}

// SendOrderConfirmed avisa al cliente que su caja quedó armada.
func SendOrderConfirmed(to, deliveryDate string) error {
	subject := "¡Caja confirmada!"
	body := fmt.Sprintf(`Hola,

Tu selección quedó guardada. La entrega está programada para el %s.

Podés modificar el contenido de tu caja hasta 48 horas antes de la entrega.

Saludos,
Equipo Pastafresca`, deliveryDate)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] order confirmation sent to %s", to)
	return nil
}

// SendOrderNeedsReview avisa que un producto de la caja quedó sin stock
// y el pedido necesita re-confirmación.
func SendOrderNeedsReview(to, productName string) error {
	subject := "Tu caja necesita un ajuste"
	body := fmt.Sprintf(`Hola,

"%s" quedó sin stock y formaba parte de tu próxima caja.

Entrá al panel y confirmá un reemplazo antes del cierre de edición.

Saludos,
Equipo Pastafresca`, productName)
	if err := send(to, subject, body); err != nil {
		return err
	}
	log.Printf("[EMAIL] order review notice sent to %s", to)
	return nil
}
