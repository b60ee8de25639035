package indexer

import (
	"context"
	"errors"
	"net/http"
	"time"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
	logger     cmtlog.Logger
}

func NewService(listenAddr string, indexer *ChainIndexer, logger cmtlog.Logger) *Service {
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
		logger:     logger.With("module", "indexer-service"),
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getPhases", s.handleGetPhases)
	s.engine.POST("/getVoters", s.handleGetVoters)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.listenAddr,
		Handler: s.engine,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("indexer service shutdown fail", "err", err)
		}
	}()
	s.logger.Info("indexer service listening", "addr", s.listenAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsReq struct {
	Proposer string `json:"proposer"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		proposals []Proposal
		total     uint64
		err       error
	)
	if requestData.Proposer != "" {
		proposals, total, err = s.indexer.getProposalsByProposer(requestData.Proposer, requestData.Page, requestData.PageSize)
	} else {
		proposals, total, err = s.indexer.getProposals(requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response.Total = total
	for _, proposal := range proposals {
		votes, err := s.indexer.getVotesByProposal(proposal.ProposalIndex, 0, maxPageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{
			Proposal: proposal,
			Votes:    votes,
		})
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	Proposal *uint64 `json:"proposal"`
	Voter    string  `json:"voter"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var (
		votes []Vote
		err   error
	)
	switch {
	case requestData.Voter != "":
		votes, err = s.indexer.getVoteByVoter(requestData.Voter)
	case requestData.Proposal != nil:
		votes, err = s.indexer.getVotesByProposal(*requestData.Proposal, requestData.Page, requestData.PageSize)
	default:
		votes, err = s.indexer.getVotes(requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if votes == nil {
		votes = make([]Vote, 0)
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes})
}

type GetPhasesResponse struct {
	Phases []PhaseChange `json:"phases"`
}

func (s *Service) handleGetPhases(c *gin.Context) {
	phases, err := s.indexer.getPhases()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if phases == nil {
		phases = make([]PhaseChange, 0)
	}
	c.JSON(http.StatusOK, GetPhasesResponse{Phases: phases})
}

type GetVotersReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetVotersResponse struct {
	Voters []Voter `json:"voters"`
	Total  uint64  `json:"total"`
}

func (s *Service) handleGetVoters(c *gin.Context) {
	var requestData GetVotersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	voters, total, err := s.indexer.getVoters(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if voters == nil {
		voters = make([]Voter, 0)
	}
	c.JSON(http.StatusOK, GetVotersResponse{Voters: voters, Total: total})
}
