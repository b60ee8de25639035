package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calehh/ballot-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

var ErrDecodeEvent = errors.New("decode event fail")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// chainClient is the part of the CometBFT RPC client the indexer polls.
type chainClient interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

// ChainIndexer follows committed blocks and projects ballot events into sqlite.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Height        int64
	db            *gorm.DB
	cli           chainClient
	interval      time.Duration
	eventHandlers map[string]eventHandler
}

func OpenDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	db.DB().SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Height{}, &Voter{}, &Proposal{}, &Vote{}, &PhaseChange{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewChainIndexer(logger cmtlog.Logger, db *gorm.DB, cli chainClient, interval time.Duration) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		cli:      cli,
		interval: interval,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventVoterRegisteredType:    c.handleEventVoterRegistered,
		types.EventPhaseChangedType:       c.handleEventPhaseChanged,
		types.EventProposalRegisteredType: c.handleEventProposalRegistered,
		types.EventVoteCastType:           c.handleEventVoteCast,
	}
	c.logger.Info("NewChainIndexer", "height", c.Height)
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventVoterRegistered(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVoterRegistered(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	var v Voter
	return db.Where("address = ?", ev.Voter).Attrs(Voter{Height: uint64(height)}).FirstOrCreate(&v).Error
}

func (c *ChainIndexer) handleEventPhaseChanged(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventPhaseChanged(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	var p PhaseChange
	return db.Where("height = ? AND current_phase = ?", uint64(height), uint8(ev.Current)).
		Attrs(PhaseChange{
			PreviousPhase: uint8(ev.Previous),
			CurrentPhase:  uint8(ev.Current),
			Label:         ev.Current.Label(),
			Height:        uint64(height),
		}).FirstOrCreate(&p).Error
}

func (c *ChainIndexer) handleEventProposalRegistered(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalRegistered(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	var p Proposal
	return db.Where("proposal_index = ?", ev.ProposalIndex).
		Attrs(Proposal{
			ProposalIndex: ev.ProposalIndex,
			Proposer:      ev.Proposer,
			Description:   ev.Description,
			Height:        uint64(height),
		}).FirstOrCreate(&p).Error
}

func (c *ChainIndexer) handleEventVoteCast(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	var cnt uint64
	if err := db.Model(&Vote{}).Where("voter = ?", ev.Voter).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	vote := Vote{
		Voter:    ev.Voter,
		Proposal: ev.ProposalIndex,
		Height:   uint64(height),
	}
	if err := db.Create(&vote).Error; err != nil {
		return err
	}
	return db.Model(&Proposal{}).Where("proposal_index = ?", ev.ProposalIndex).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1)).Error
}

// indexBlock applies the events of successful txs at height together with
// the height marker, so a block is indexed at most once.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64) error {
	res, err := c.cli.BlockResults(ctx, &height)
	if err != nil {
		return err
	}
	return c.db.Transaction(func(db *gorm.DB) error {
		for _, txRes := range res.TxsResults {
			if txRes == nil || txRes.Code != 0 {
				continue
			}
			for _, event := range txRes.Events {
				if err := c.handleEvent(db, event, height); err != nil {
					return err
				}
			}
		}
		return db.Save(&Height{Id: 1, Height: uint64(height)}).Error
	})
}

// Sync indexes every block up to the latest height reported by the node.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	st, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for c.Height <= st.SyncInfo.LatestBlockHeight {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.indexBlock(ctx, c.Height); err != nil {
			return fmt.Errorf("index block %d: %w", c.Height, err)
		}
		c.logger.Debug("block indexed", "height", c.Height)
		c.Height++
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

func pageOf(page int, pageSize int) (int, int) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	page, pageSize = pageOf(page, pageSize)
	var proposals []Proposal
	err := c.db.Order("proposal_index asc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalsByProposer(proposer string, page int, pageSize int) ([]Proposal, uint64, error) {
	page, pageSize = pageOf(page, pageSize)
	var proposals []Proposal
	err := c.db.Where("proposer = ?", proposer).Order("proposal_index asc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("proposer = ?", proposer).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal uint64, page int, pageSize int) ([]Vote, error) {
	page, pageSize = pageOf(page, pageSize)
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getVoteByVoter(voter string) ([]Vote, error) {
	var votes []Vote
	err := c.db.Where("voter = ?", voter).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getVotes(page int, pageSize int) ([]Vote, error) {
	page, pageSize = pageOf(page, pageSize)
	var votes []Vote
	err := c.db.Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *ChainIndexer) getPhases() ([]PhaseChange, error) {
	var phases []PhaseChange
	err := c.db.Order("id asc").Find(&phases).Error
	if err != nil {
		return nil, err
	}
	return phases, nil
}

func (c *ChainIndexer) getVoters(page int, pageSize int) ([]Voter, uint64, error) {
	page, pageSize = pageOf(page, pageSize)
	var voters []Voter
	err := c.db.Order("height asc, address asc").Offset(page * pageSize).Limit(pageSize).Find(&voters).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Voter{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return voters, total, nil
}
