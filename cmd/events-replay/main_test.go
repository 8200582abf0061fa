package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/pedidos/internal/domain"
	"github.com/vladislavdragonenkov/pedidos/internal/messaging/kafka"
)

func eventValue(t *testing.T, eventType domain.EventType, id, estado string) []byte {
	t.Helper()

	fecha, err := domain.ParseFecha("14/02/2025")
	if err != nil {
		t.Fatalf("parse fecha: %v", err)
	}
	hora, err := domain.ParseHora("20:15:00")
	if err != nil {
		t.Fatalf("parse hora: %v", err)
	}
	event := domain.NewPedidoEvent(eventType, domain.Pedido{
		ID: id, Fecha: fecha, Hora: hora, Telefono: "1", Nombre: "N",
		Modalidad: "retiro", Productos: "x", Estado: estado,
	})
	raw, err := json.Marshal(kafka.NewPedidoEventMessage(event))
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return raw
}

func TestParseBrokers(t *testing.T) {
	brokers := parseBrokers(" broker-1:9092, ,broker-2:9092 ")
	if len(brokers) != 2 {
		t.Fatalf("unexpected brokers count: got=%d want=2", len(brokers))
	}
	if brokers[0] != "broker-1:9092" || brokers[1] != "broker-2:9092" {
		t.Fatalf("unexpected brokers: %+v", brokers)
	}
}

func TestParseConfig_FromFlags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-brokers=broker-1:9092,broker-2:9092",
		"-target-topic=pedidos.events.rebuild",
		"-pedido-id=A-1",
		"-event-type=pedido.created",
		"-limit=10",
		"-execute=true",
		"-from-newest=true",
		"-idle-timeout=3s",
	}, nil, &strings.Builder{})
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if len(cfg.brokers) != 2 {
		t.Fatalf("unexpected brokers count: %d", len(cfg.brokers))
	}
	if cfg.sourceTopic != kafka.TopicPedidoEvents {
		t.Fatalf("unexpected default source topic: %s", cfg.sourceTopic)
	}
	if cfg.pedidoID != "A-1" || cfg.eventType != "pedido.created" {
		t.Fatalf("unexpected filters: %+v", cfg)
	}
	if cfg.limit != 10 || !cfg.execute || !cfg.fromNewest {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.idleTimeout != 3*time.Second {
		t.Fatalf("unexpected idle-timeout: %s", cfg.idleTimeout)
	}
}

func TestParseConfig_BrokersFromEnv(t *testing.T) {
	getenv := func(key string) string {
		if key == "KAFKA_BROKERS" {
			return "env-broker:9092"
		}
		return ""
	}
	cfg, err := parseConfig(nil, getenv, &strings.Builder{})
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if len(cfg.brokers) != 1 || cfg.brokers[0] != "env-broker:9092" {
		t.Fatalf("unexpected brokers: %+v", cfg.brokers)
	}
	if cfg.execute {
		t.Fatal("dry-run must be the default")
	}
}

func TestParseConfig_ValidationErrors(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"-brokers="}, "kafka brokers are required"},
		{[]string{"-brokers=b:9092", "-source-topic= "}, "source-topic is required"},
		{[]string{"-brokers=b:9092", "-execute"}, "target-topic is required"},
		{[]string{"-brokers=b:9092", "-execute", "-target-topic=pedidos.events"}, "must differ"},
		{[]string{"-brokers=b:9092", "-limit=0"}, "limit must be > 0"},
		{[]string{"-brokers=b:9092", "-idle-timeout=0s"}, "idle-timeout must be > 0"},
		{[]string{"-unknown"}, "flag provided but not defined"},
	}

	for _, tc := range cases {
		_, err := parseConfig(tc.args, nil, &strings.Builder{})
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("args %v: expected error containing %q, got %v", tc.args, tc.want, err)
		}
	}
}

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent(&sarama.ConsumerMessage{Value: eventValue(t, domain.EventPedidoEstadoUpdated, "A-1", "listo")})
	if err != nil {
		t.Fatalf("decodeEvent failed: %v", err)
	}
	if event.PedidoID != "A-1" || event.EventType != string(domain.EventPedidoEstadoUpdated) {
		t.Fatalf("unexpected event: %+v", event)
	}
	if estadoOf(event) != "listo" {
		t.Fatalf("unexpected estado: %q", estadoOf(event))
	}

	if _, err := decodeEvent(&sarama.ConsumerMessage{Value: []byte(`{"foo":"bar"}`)}); err == nil {
		t.Fatal("expected error for foreign message")
	}
	if _, err := decodeEvent(&sarama.ConsumerMessage{Value: []byte(`not-json`)}); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestMatches(t *testing.T) {
	event := kafka.PedidoEventMessage{PedidoID: "A-1", EventType: "pedido.created"}

	if !matches(config{}, event) {
		t.Fatal("empty filters must match everything")
	}
	if !matches(config{pedidoID: "A-1", eventType: "pedido.created"}, event) {
		t.Fatal("expected match")
	}
	if matches(config{pedidoID: "B-2"}, event) {
		t.Fatal("unexpected match by pedido id")
	}
	if matches(config{eventType: "pedido.estado_updated"}, event) {
		t.Fatal("unexpected match by event type")
	}
}

func TestRepublish(t *testing.T) {
	msg := &sarama.ConsumerMessage{
		Key:   []byte("A-1"),
		Value: []byte(`{"x":1}`),
		Headers: []*sarama.RecordHeader{
			{Key: []byte(kafka.HeaderEventType), Value: []byte("pedido.created")},
			nil,
		},
	}

	if err := republish(nil, "topic", msg); err == nil {
		t.Fatal("expected error for nil producer")
	}

	producer := &stubReplayProducer{}
	if err := republish(producer, "topic", msg); err != nil {
		t.Fatalf("republish failed: %v", err)
	}
	if producer.lastMsg == nil || producer.lastMsg.Topic != "topic" {
		t.Fatalf("unexpected last message: %+v", producer.lastMsg)
	}
	if len(producer.lastMsg.Headers) != 1 || string(producer.lastMsg.Headers[0].Value) != "pedido.created" {
		t.Fatalf("headers must be copied: %+v", producer.lastMsg.Headers)
	}
	key, _ := producer.lastMsg.Key.Encode()
	if string(key) != "A-1" {
		t.Fatalf("unexpected key: %s", key)
	}

	producer.sendErr = errors.New("send failed")
	if err := republish(producer, "topic", msg); err == nil {
		t.Fatal("expected republish error")
	}
}

func TestProcessPartition_DryRunFilters(t *testing.T) {
	client := &stubOffsetClient{offsets: map[int32]offsetRange{0: {oldest: 0, newest: 3}}}
	consumer := &stubPartitionConsumerSource{
		consumers: map[int32]partitionConsumer{
			0: closedPartitionConsumer([]*sarama.ConsumerMessage{
				{Partition: 0, Offset: 0, Value: eventValue(t, domain.EventPedidoCreated, "A-1", "")},
				{Partition: 0, Offset: 1, Value: eventValue(t, domain.EventPedidoCreated, "B-2", "")},
				{Partition: 0, Offset: 2, Value: []byte(`garbage`)},
			}),
		},
	}

	cfg := config{sourceTopic: kafka.TopicPedidoEvents, pedidoID: "A-1", idleTimeout: 20 * time.Millisecond}

	stats, err := processPartition(context.Background(), consumer, client, nil, cfg, 0, 10)
	if err != nil {
		t.Fatalf("processPartition failed: %v", err)
	}
	if stats.processed != 3 || stats.matched != 1 || stats.skipped != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestProcessPartition_Execute(t *testing.T) {
	client := &stubOffsetClient{offsets: map[int32]offsetRange{0: {oldest: 0, newest: 2}}}
	consumer := &stubPartitionConsumerSource{
		consumers: map[int32]partitionConsumer{
			0: closedPartitionConsumer([]*sarama.ConsumerMessage{
				{Partition: 0, Offset: 0, Key: []byte("A-1"), Value: eventValue(t, domain.EventPedidoCreated, "A-1", "")},
			}),
		},
	}
	producer := &stubReplayProducer{}

	cfg := config{sourceTopic: kafka.TopicPedidoEvents, targetTopic: "rebuild", execute: true, idleTimeout: 20 * time.Millisecond}

	stats, err := processPartition(context.Background(), consumer, client, producer, cfg, 0, 10)
	if err != nil {
		t.Fatalf("processPartition failed: %v", err)
	}
	if stats.matched != 1 || producer.calls != 1 {
		t.Fatalf("expected one republished event, stats=%+v calls=%d", stats, producer.calls)
	}
	if producer.lastMsg.Topic != "rebuild" {
		t.Fatalf("unexpected target topic: %s", producer.lastMsg.Topic)
	}
}

func TestProcessPartition_FromNewest(t *testing.T) {
	client := &stubOffsetClient{offsets: map[int32]offsetRange{0: {oldest: 3, newest: 10}}}
	consumer := &stubPartitionConsumerSource{
		consumers: map[int32]partitionConsumer{0: closedPartitionConsumer(nil)},
	}
	cfg := config{sourceTopic: kafka.TopicPedidoEvents, fromNewest: true, idleTimeout: 20 * time.Millisecond}

	if _, err := processPartition(context.Background(), consumer, client, nil, cfg, 0, 4); err != nil {
		t.Fatalf("processPartition failed: %v", err)
	}
	if len(consumer.calls) != 1 || consumer.calls[0].offset != 6 {
		t.Fatalf("unexpected consume calls: %+v", consumer.calls)
	}

	consumer.calls = nil
	consumer.consumers[0] = closedPartitionConsumer(nil)
	if _, err := processPartition(context.Background(), consumer, client, nil, cfg, 0, 100); err != nil {
		t.Fatalf("processPartition failed: %v", err)
	}
	if consumer.calls[0].offset != 3 {
		t.Fatalf("start offset must not go below oldest: %+v", consumer.calls)
	}
}

func TestProcessPartition_ErrorBranches(t *testing.T) {
	cfg := config{sourceTopic: kafka.TopicPedidoEvents, targetTopic: "rebuild", execute: true, idleTimeout: 20 * time.Millisecond}

	clientOffsetErr := &stubOffsetClient{offsetErr: map[int32]error{0: errors.New("offset")}}
	if _, err := processPartition(context.Background(), &stubPartitionConsumerSource{}, clientOffsetErr, &stubReplayProducer{}, cfg, 0, 1); err == nil {
		t.Fatal("expected offset error")
	}

	client := &stubOffsetClient{offsets: map[int32]offsetRange{0: {oldest: 0, newest: 2}}}
	consumerErr := &stubPartitionConsumerSource{consumeErr: errors.New("consume")}
	if _, err := processPartition(context.Background(), consumerErr, client, &stubReplayProducer{}, cfg, 0, 1); err == nil {
		t.Fatal("expected consume error")
	}

	pcWithErr := &stubPartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage),
		errors:   make(chan *sarama.ConsumerError, 1),
	}
	pcWithErr.errors <- &sarama.ConsumerError{Err: errors.New("consumer boom")}
	consumer := &stubPartitionConsumerSource{consumers: map[int32]partitionConsumer{0: pcWithErr}}
	if _, err := processPartition(context.Background(), consumer, client, &stubReplayProducer{}, cfg, 0, 1); err == nil {
		t.Fatal("expected consumer error branch")
	}

	pcOK := closedPartitionConsumer([]*sarama.ConsumerMessage{
		{Partition: 0, Offset: 0, Value: eventValue(t, domain.EventPedidoCreated, "A-1", "")},
	})
	consumer = &stubPartitionConsumerSource{consumers: map[int32]partitionConsumer{0: pcOK}}
	producer := &stubReplayProducer{sendErr: errors.New("send fail")}
	if _, err := processPartition(context.Background(), consumer, client, producer, cfg, 0, 1); err == nil {
		t.Fatal("expected producer send error")
	}
}

func TestProcessPartition_IdleTimeoutAndContext(t *testing.T) {
	client := &stubOffsetClient{offsets: map[int32]offsetRange{0: {oldest: 0, newest: 2}}}

	idleConsumer := &stubPartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage),
		errors:   make(chan *sarama.ConsumerError),
	}
	consumer := &stubPartitionConsumerSource{consumers: map[int32]partitionConsumer{0: idleConsumer}}
	cfg := config{sourceTopic: kafka.TopicPedidoEvents, idleTimeout: 10 * time.Millisecond}

	stats, err := processPartition(context.Background(), consumer, client, nil, cfg, 0, 1)
	if err != nil {
		t.Fatalf("unexpected idle-timeout error: %v", err)
	}
	if stats.processed != 0 {
		t.Fatalf("expected processed=0, got %+v", stats)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	canceledPC := &stubPartitionConsumer{
		messages: make(chan *sarama.ConsumerMessage),
		errors:   make(chan *sarama.ConsumerError),
	}
	canceledConsumer := &stubPartitionConsumerSource{consumers: map[int32]partitionConsumer{0: canceledPC}}
	if _, err := processPartition(ctx, canceledConsumer, client, nil, cfg, 0, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestRunReplay(t *testing.T) {
	cfg := config{sourceTopic: kafka.TopicPedidoEvents, limit: 1, idleTimeout: 20 * time.Millisecond}

	if _, err := runReplay(context.Background(), cfg, nil, nil, nil); err == nil {
		t.Fatal("expected missing deps error")
	}

	client := &stubOffsetClient{
		partitions: []int32{2, 0},
		offsets: map[int32]offsetRange{
			0: {oldest: 0, newest: 2},
			2: {oldest: 0, newest: 2},
		},
	}
	consumer := &stubPartitionConsumerSource{
		consumers: map[int32]partitionConsumer{
			0: closedPartitionConsumer([]*sarama.ConsumerMessage{
				{Partition: 0, Offset: 0, Value: eventValue(t, domain.EventPedidoCreated, "A-1", "")},
			}),
			2: closedPartitionConsumer([]*sarama.ConsumerMessage{
				{Partition: 2, Offset: 0, Value: eventValue(t, domain.EventPedidoCreated, "B-2", "")},
			}),
		},
	}

	stats, err := runReplay(context.Background(), cfg, client, consumer, nil)
	if err != nil {
		t.Fatalf("runReplay failed: %v", err)
	}
	if stats.matched != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(consumer.calls) != 1 || consumer.calls[0].partition != 0 {
		t.Fatalf("expected only the first sorted partition to be read, got %+v", consumer.calls)
	}

	executeCfg := cfg
	executeCfg.execute = true
	if _, err := runReplay(context.Background(), executeCfg, client, consumer, nil); err == nil {
		t.Fatal("expected execute mode to require producer")
	}

	if _, err := runReplay(context.Background(), cfg, &stubOffsetClient{}, consumer, nil); err != nil {
		t.Fatalf("expected nil error for empty partitions, got %v", err)
	}

	failing := &stubOffsetClient{partitionsErr: errors.New("metadata")}
	if _, err := runReplay(context.Background(), cfg, failing, consumer, nil); err == nil {
		t.Fatal("expected partitions error")
	}
}

func TestRun_UsesDependencies(t *testing.T) {
	oldDeps := newReplayDependencies
	defer func() { newReplayDependencies = oldDeps }()

	cfg := config{sourceTopic: kafka.TopicPedidoEvents, targetTopic: "rebuild", execute: true, limit: 1, idleTimeout: 20 * time.Millisecond}

	newReplayDependencies = func(config) (offsetClient, partitionConsumerSource, replayProducer, error) {
		return nil, nil, nil, errors.New("deps failed")
	}
	if err := run(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "deps failed") {
		t.Fatalf("expected deps error, got %v", err)
	}

	client := &stubOffsetClient{
		partitions: []int32{0},
		offsets:    map[int32]offsetRange{0: {oldest: 0, newest: 2}},
	}
	consumer := &stubPartitionConsumerSource{
		consumers: map[int32]partitionConsumer{
			0: closedPartitionConsumer([]*sarama.ConsumerMessage{
				{Partition: 0, Offset: 0, Value: eventValue(t, domain.EventPedidoCreated, "A-1", "")},
			}),
		},
	}
	producer := &stubReplayProducer{}

	newReplayDependencies = func(config) (offsetClient, partitionConsumerSource, replayProducer, error) {
		return client, consumer, producer, nil
	}
	if err := run(context.Background(), cfg); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if producer.calls != 1 {
		t.Fatalf("expected one republished event, got %d", producer.calls)
	}
	if !client.closed || !consumer.closed || !producer.closed {
		t.Fatalf("expected all deps to be closed: client=%v consumer=%v producer=%v", client.closed, consumer.closed, producer.closed)
	}
}

func TestFailExits(t *testing.T) {
	if os.Getenv("EVENTS_REPLAY_TEST_FAIL_EXIT") == "1" {
		fail("boom")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFailExits")
	cmd.Env = append(os.Environ(), "EVENTS_REPLAY_TEST_FAIL_EXIT=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with error")
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() == 0 {
		t.Fatalf("expected non-zero exit code, got %v", err)
	}
}

type offsetRange struct {
	oldest int64
	newest int64
}

type stubOffsetClient struct {
	partitions    []int32
	partitionsErr error
	offsets       map[int32]offsetRange
	offsetErr     map[int32]error
	closed        bool
}

func (s *stubOffsetClient) GetOffset(_ string, partition int32, marker int64) (int64, error) {
	if err, ok := s.offsetErr[partition]; ok {
		return 0, err
	}

	r := s.offsets[partition]
	switch marker {
	case sarama.OffsetOldest:
		return r.oldest, nil
	case sarama.OffsetNewest:
		return r.newest, nil
	default:
		return 0, fmt.Errorf("unsupported marker %d", marker)
	}
}

func (s *stubOffsetClient) Partitions(string) ([]int32, error) {
	if s.partitionsErr != nil {
		return nil, s.partitionsErr
	}
	return append([]int32(nil), s.partitions...), nil
}

func (s *stubOffsetClient) Close() error {
	s.closed = true
	return nil
}

type consumeCall struct {
	partition int32
	offset    int64
}

type stubPartitionConsumerSource struct {
	consumers  map[int32]partitionConsumer
	consumeErr error
	calls      []consumeCall
	closed     bool
}

func (s *stubPartitionConsumerSource) ConsumePartition(_ string, partition int32, offset int64) (partitionConsumer, error) {
	s.calls = append(s.calls, consumeCall{partition: partition, offset: offset})
	if s.consumeErr != nil {
		return nil, s.consumeErr
	}
	pc, ok := s.consumers[partition]
	if !ok {
		return nil, fmt.Errorf("partition %d not configured", partition)
	}
	return pc, nil
}

func (s *stubPartitionConsumerSource) Close() error {
	s.closed = true
	return nil
}

type stubPartitionConsumer struct {
	messages chan *sarama.ConsumerMessage
	errors   chan *sarama.ConsumerError
}

func (s *stubPartitionConsumer) Messages() <-chan *sarama.ConsumerMessage { return s.messages }
func (s *stubPartitionConsumer) Errors() <-chan *sarama.ConsumerError     { return s.errors }
func (s *stubPartitionConsumer) Close() error                             { return nil }

func closedPartitionConsumer(messages []*sarama.ConsumerMessage) *stubPartitionConsumer {
	msgCh := make(chan *sarama.ConsumerMessage, len(messages))
	errCh := make(chan *sarama.ConsumerError)
	for _, msg := range messages {
		msgCh <- msg
	}
	close(msgCh)
	close(errCh)
	return &stubPartitionConsumer{messages: msgCh, errors: errCh}
}

type stubReplayProducer struct {
	sendErr error
	calls   int
	closed  bool
	lastMsg *sarama.ProducerMessage
}

func (s *stubReplayProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	s.calls++
	s.lastMsg = msg
	if s.sendErr != nil {
		return 0, 0, s.sendErr
	}
	return 0, int64(s.calls), nil
}

func (s *stubReplayProducer) Close() error {
	s.closed = true
	return nil
}
