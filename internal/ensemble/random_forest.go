package ensemble

import "balancedbag/internal/models"

// NewBalancedRandomForest is balanced bagging over trees that pick
// sqrt(n_features) candidate columns at each split.
func NewBalancedRandomForest() *BalancedBagging {
	bb := NewBalancedBagging()
	bb.NEstimators = 30
	tree := models.DefaultDecisionTreeConfig()
	tree.MaxFeatures = -1
	bb.Base = tree
	return bb
}

// NewRandomForest is the unbalanced counterpart of NewBalancedRandomForest.
func NewRandomForest() *Bagging {
	b := NewBagging()
	b.NEstimators = 30
	tree := models.DefaultDecisionTreeConfig()
	tree.MaxFeatures = -1
	b.Base = tree
	return b
}
