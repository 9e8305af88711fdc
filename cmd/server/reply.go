package main

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Reply struct {
	Script     string `json:"script"`
	Statements int    `json:"statements"`
	ElapsedMs  int64  `json:"elapsed_ms"`
	Error      string `json:"error,omitempty"`
}

func replyMessage(nc *nats.Conn, replySubject string, rep *Reply) error {
	// Send a reply if the message has a reply subject
	if replySubject == "" {
		return nil
	}

	fields := log.Fields{"script": rep.Script}

	payload, err := json.Marshal(rep)
	if err != nil {
		log.WithFields(fields).Errorf("failed to serialize script reply to JSON: %v", err)
		return fmt.Errorf("failed to serialize script reply to JSON: %v", err)
	}

	log.WithFields(fields).Debugf("sent reply: %s", string(payload))
	err = nc.Publish(replySubject, payload)
	if err != nil {
		log.WithFields(fields).Errorf("failed to publish reply after running script: %v", err)
	}

	return nil
}
