package models

// RunReport holds the tallies of one batch run, printed when the run ends.
type RunReport struct {
	Processed     int
	Inserted      int
	AlreadyStored int
	DeletedHidden int
	Failed        int
	ByStatus      map[string]int
	ByCategory    map[string]int
	MissingFields map[string]int // field name -> records missing it
	TotalPledged  float64        // target currency, records with observed amounts
	TotalTiers    int
}
