// Package queue also contains the background consumer that listens to
// the payment.settled queue, emails the student and appends a
// structured line to logs/payments.log.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ulesfyw/fyw-pay/internal/mailer"
	"github.com/ulesfyw/fyw-pay/internal/model"
)

const settledQueueName = "payment.settled"

// StartSettlementConsumer connects to RabbitMQ, declares the
// payment.settled queue (durable), and starts consuming messages. Each
// message triggers a notification email when the mailer is configured
// and is appended to logs/payments.log. The function runs a reconnect
// loop; it keeps running and logs any processing errors while
// rejecting the offending message so the server continues operating.
func StartSettlementConsumer(brokerURL string, m *mailer.Mailer) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(brokerURL)
		if err != nil {
			log.Printf("settlement-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, m); err != nil {
			log.Printf("settlement-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeLoop(conn *amqp.Connection, m *mailer.Mailer) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("settlement-consumer: set QoS failed: %v", err)
	}

	_, err = ch.QueueDeclare(settledQueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(settledQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, m); err != nil {
			log.Printf("settlement-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, m *mailer.Mailer) error {
	var ev PaymentSettledEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if m != nil && m.Enabled() && ev.Email != "" {
		var mailErr error
		if ev.PaymentStatus == string(model.StatusFullyPaid) {
			mailErr = m.SendPaymentComplete(ev.Email, ev.FullName, ev.PackageName, ev.InviteURL, ev.TotalPaidKobo)
		} else {
			mailErr = m.SendPaymentReceived(ev.Email, ev.FullName, ev.PackageName, ev.AmountKobo, ev.TotalPaidKobo, ev.OutstandingKobo)
		}
		if mailErr != nil {
			// Notification is best effort; the ledger entry below still lands.
			log.Printf("settlement-consumer: email to %s failed: %v", ev.Email, mailErr)
		}
	}

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	fpath := filepath.Join("logs", "payments.log")
	f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Payment settled | payment_id=%d | student=%s | reference=%s | amount=%s | total_paid=%s | status=%s | outstanding=%s\n",
		ev.SettledAt, ev.PaymentID, ev.MatricNumber, ev.Reference,
		mailer.FormatNaira(ev.AmountKobo), mailer.FormatNaira(ev.TotalPaidKobo),
		ev.PaymentStatus, mailer.FormatNaira(ev.OutstandingKobo))

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
