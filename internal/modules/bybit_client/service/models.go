package service

type instrumentsResult struct {
	List []struct {
		Symbol        string `json:"symbol"`
		Status        string `json:"status"`
		PriceScale    string `json:"priceScale"`
		LotSizeFilter struct {
			MinOrderQty string `json:"minOrderQty"`
			QtyStep     string `json:"qtyStep"`
		} `json:"lotSizeFilter"`
	} `json:"list"`
}

type tickersResult struct {
	List []struct {
		Symbol    string `json:"symbol"`
		Ask1Price string `json:"ask1Price"`
		LastPrice string `json:"lastPrice"`
	} `json:"list"`
}

type positionRow struct {
	Symbol        string `json:"symbol"`
	Side          string `json:"side"`
	Size          string `json:"size"`
	AvgPrice      string `json:"avgPrice"`
	PositionValue string `json:"positionValue"`
	UnrealisedPnl string `json:"unrealisedPnl"`
}

type positionsResult struct {
	List []positionRow `json:"list"`
}

type orderResult struct {
	OrderID     string `json:"orderId"`
	OrderLinkID string `json:"orderLinkId"`
}
