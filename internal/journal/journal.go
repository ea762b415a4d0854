package journal

/*
Журнал действий: неблокирующий сбор записей об исходах оркестрации и их
пакетная запись в PostgreSQL.

- Non-blocking: запись в журнал никогда не тормозит обработку действия;
  при переполнении буфера применяется load shedding с ошибкой в логе.
- Batching: записи копятся в памяти и уходят в базу пачками по таймеру
  или при достижении лимита пачки.
- Drain Pattern: при остановке входной канал закрывается, воркер вычитывает
  остатки и делает финальный flush — записи при перезапуске не теряются.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// StorageInterface определяет, куда физически сохраняются записи
type StorageInterface interface {
	// WriteBatch сохраняет пачку записей за один раз
	WriteBatch(ctx context.Context, records []Record) error
}

// BufferGauge принимает текущую заполненность буфера (prometheus.Gauge подходит).
type BufferGauge interface {
	Set(float64)
}

type Journal struct {
	ch        chan Record
	repo      StorageInterface
	logger    *zap.Logger
	wg        sync.WaitGroup
	batchSize int
	interval  time.Duration
	isClosed  int32 // Атомарный флаг (0 - открыт, 1 - закрыт)
	gauge     BufferGauge
}

// ObserveBuffer подключает gauge заполненности буфера. Вызывается до Start.
func (j *Journal) ObserveBuffer(g BufferGauge) {
	j.gauge = g
}

func New(repo StorageInterface, logger *zap.Logger, bufferSize, batchSize int, interval time.Duration) *Journal {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Journal{
		ch:        make(chan Record, bufferSize),
		repo:      repo,
		logger:    logger.Named("journal"),
		batchSize: batchSize,
		interval:  interval,
	}
}

func (j *Journal) Start() {
	j.wg.Add(1)
	go j.worker()
}

// Stop запирает вход в канал и ждет, пока воркер всё допишет.
func (j *Journal) Stop() {
	atomic.StoreInt32(&j.isClosed, 1)

	// Крошечная пауза, чтобы текущие Log успели проскочить
	time.Sleep(10 * time.Millisecond)

	j.logger.Info("stopping journal: closing channel and flushing buffer...")
	close(j.ch)
	j.wg.Wait()
	j.logger.Info("journal stopped gracefully")
}

func (j *Journal) Log(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if atomic.LoadInt32(&j.isClosed) == 1 {
		j.logger.Warn("journal record dropped: journal is stopping", zap.String("id", rec.ID))
		return
	}

	// Load shedding: переполненный буфер не должен блокировать обработку действия
	select {
	case j.ch <- rec:
		if j.gauge != nil {
			j.gauge.Set(float64(len(j.ch)))
		}
	default:
		j.logger.Error("journal_buffer_overflow",
			zap.String("actor_id", rec.ActorID),
			zap.String("trace_id", rec.TraceID),
		)
	}
}

func (j *Journal) worker() {
	defer j.wg.Done()

	batch := make([]Record, 0, j.batchSize)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст к этому моменту может быть закрыт
			if err := j.repo.WriteBatch(context.Background(), batch); err != nil {
				j.logger.Error("journal flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case rec, ok := <-j.ch:
			if !ok {
				// Канал закрыт в Stop(): вычитали остатки — финальный flush и выход
				flush()
				j.logger.Info("journal worker finished")
				return
			}
			batch = append(batch, rec)
			if j.gauge != nil {
				j.gauge.Set(float64(len(j.ch)))
			}
			if len(batch) >= j.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
