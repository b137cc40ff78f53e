package main

import (
	"time"

	"github.com/ripplehq/ripple/feed"
	"github.com/ripplehq/ripple/interaction"
	"github.com/ripplehq/ripple/socialgraph"
	. "github.com/ripplehq/ripple/utils"
	"github.com/ripplehq/ripple/utils/dotenv"
	. "github.com/ripplehq/ripple/utils/log"
)

const (
	interactionQueueName = "ripple_interaction_events_queue.fifo"
	messageBatchSize     = 10
)

func main() {
	if err := dotenv.LoadDotEnvs(); err != nil {
		Log.Fatal("fail to load env: ", err)
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect database: ", err)
	}

	reader, err := NewSQSMessageQueueReader(interactionQueueName, 20)
	if err != nil {
		Log.Fatal("fail to initialize SQS message queue reader: ", err)
	}

	recorder := interaction.NewRecorder(db, socialgraph.NewDBGraph(db), feed.NewEventBus())
	processor := interaction.NewIngesterMessageProcessor(reader, recorder)

	for {
		processor.ReadAndProcessMessages(messageBatchSize)

		// Protective delay
		time.Sleep(2 * time.Second)
	}
}
